package sessiongate

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testPassphrase = "wsuk"

func newGate() *Gate {
	return New("test-session-key-0123456789abcdef", testPassphrase)
}

// roundTrip carries cookies from a recorder into the next request, the way a
// browser would across page loads within one session.
func roundTrip(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestCorrectPasswordAuthorizesUntilLogout(t *testing.T) {
	g := newGate()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	if !g.CheckAdminPassword(rec, req, testPassphrase) {
		t.Fatal("correct passphrase rejected")
	}

	authedReq := roundTrip(t, rec)
	if !g.IsAdmin(authedReq) {
		t.Fatal("authorization did not persist across requests")
	}

	rec2 := httptest.NewRecorder()
	if err := g.Logout(rec2, authedReq); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if g.IsAdmin(roundTrip(t, rec2)) {
		t.Error("still authorized after logout")
	}
}

func TestWrongPasswordLeavesSessionUnchanged(t *testing.T) {
	g := newGate()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	for _, candidate := range []string{"", "WSUK", "wsuk ", "admin", "wsu"} {
		if g.CheckAdminPassword(rec, req, candidate) {
			t.Errorf("candidate %q accepted", candidate)
		}
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed attempts wrote a session cookie")
	}
	if g.IsAdmin(req) {
		t.Error("authorized after failed attempts")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	g := newGate()
	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		if err := g.Logout(rec, req); err != nil {
			t.Fatalf("logout #%d: %v", i+1, err)
		}
	}
}

func TestRecordOwnReportDeduplicates(t *testing.T) {
	g := newGate()

	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	for _, id := range []int64{3, 5, 3, 8, 5} {
		rec := httptest.NewRecorder()
		if err := g.RecordOwnReport(rec, req, id); err != nil {
			t.Fatalf("record %d: %v", id, err)
		}
		// Carry the session forward like a browser would.
		if len(rec.Result().Cookies()) > 0 {
			req = roundTrip(t, rec)
		}
	}

	ids := g.MyReportIDs(req)
	want := []int64{3, 5, 8}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestMyReportIDsEmptyForFreshSession(t *testing.T) {
	g := newGate()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ids := g.MyReportIDs(req); len(ids) != 0 {
		t.Errorf("fresh session has ids %v", ids)
	}
}

package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/appconfig"
	"github.com/roadwatch/roadwatch-web/internal/backendapi"
	"github.com/roadwatch/roadwatch-web/internal/i18n"
	"github.com/roadwatch/roadwatch-web/internal/livefeed"
	"github.com/roadwatch/roadwatch-web/internal/loaders"
	"github.com/roadwatch/roadwatch-web/internal/middleware"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/internal/notify"
	"github.com/roadwatch/roadwatch-web/internal/novelty"
	"github.com/roadwatch/roadwatch-web/internal/reportstore"
	"github.com/roadwatch/roadwatch-web/internal/sessiongate"
)

type fixture struct {
	srv     *Server
	handler http.Handler
	store   *reportstore.Store
	backend *countingBackend
}

// countingBackend fakes the detection backend and counts what reaches it.
type countingBackend struct {
	submits   atomic.Int32
	listCalls atomic.Int32
	reports   []models.Report
}

func (b *countingBackend) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/reports" && r.Method == http.MethodPost:
		b.submits.Add(1)
		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{"report_id": 42, "status": "pending", "message": "queued"}`))
	case r.URL.Path == "/api/reports":
		b.listCalls.Add(1)
		json.NewEncoder(rw).Encode(b.reports)
	case strings.HasPrefix(r.URL.Path, "/uploads/"):
		http.NotFound(rw, r)
	default:
		http.NotFound(rw, r)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := &countingBackend{}
	bs := httptest.NewServer(backend)
	t.Cleanup(bs.Close)

	cfg := &appconfig.AppConfig{
		FeedReconnectDelay:    3 * time.Second,
		FeedHeartbeatInterval: 25 * time.Second,
		NoveltyWindowSize:     10,
		NoveltyHighlightTTL:   8 * time.Second,
		ReconcileDelay:        20 * time.Millisecond,
		GeolocationTimeout:    15 * time.Second,
		AdminPassphrase:       "wsuk",
		SessionKey:            "test-session-key-for-ui",
	}

	store := reportstore.New()
	store.Prime(context.Background())
	tracker := novelty.New(cfg.NoveltyWindowSize, cfg.NoveltyHighlightTTL)
	t.Cleanup(tracker.Stop)

	api := backendapi.New(bs.URL)
	srv := &Server{
		Cfg:      cfg,
		Store:    store,
		API:      api,
		Gate:     sessiongate.New(cfg.SessionKey, cfg.AdminPassphrase),
		Notifier: notify.NewManager(),
		Novelty:  tracker,
		Loader: &loaders.Loader{
			API:            api,
			Store:          store,
			ReconcileDelay: cfg.ReconcileDelay,
		},
		FeedStatus: func() livefeed.Status { return livefeed.StatusConnected },
	}

	bundle, err := i18n.Load("en")
	if err != nil {
		t.Fatalf("load i18n bundle: %v", err)
	}

	return &fixture{
		srv:     srv,
		handler: middleware.Language(bundle)(srv.GetRouter(bundle)),
		store:   store,
		backend: backend,
	}
}

func (f *fixture) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func multipartBody(t *testing.T, withFile bool, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withFile {
		part, err := mw.CreateFormFile("file", "pothole.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("fake jpeg bytes"))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestIndexRendersSnapshot(t *testing.T) {
	f := newFixture(t)
	f.store.ReplaceAll(context.Background(), []models.Report{
		{ID: 7, Status: models.StatusProcessed, CreatedAt: "2026-08-20T10:00:00Z",
			Detections: []models.Detection{{DefectType: "pothole", Confidence: 0.91}}},
		{ID: 3, Status: models.StatusPending, CreatedAt: "2026-08-19T08:00:00Z"},
	})

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}
	body := rr.Body.String()
	for _, want := range []string{"#7", "#3", "Pothole", "Defect Map", `data-status="connected"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestAdminGatedBehindLogin(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `type="password"`) {
		t.Fatalf("expected login page, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}

	// Wrong passphrase re-renders the login form.
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("password=nope"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = f.do(t, req, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong passphrase, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Incorrect password") {
		t.Error("expected login error message")
	}

	// Correct passphrase redirects and the session cookie unlocks the page.
	req = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("password=wsuk"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = f.do(t, req, nil)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), cookies)
	if !strings.Contains(rr.Body.String(), "Admin Dashboard") {
		t.Error("expected dashboard after login")
	}

	// Logout drops access again.
	rr = f.do(t, httptest.NewRequest(http.MethodPost, "/admin/logout", nil), cookies)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", rr.Code)
	}
	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), rr.Result().Cookies())
	if !strings.Contains(rr.Body.String(), `type="password"`) {
		t.Error("expected login page after logout")
	}
}

func TestSubmitWithoutFileNeverReachesBackend(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, false, map[string]string{
		"latitude": "50.45", "longitude": "30.52",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	rr := f.do(t, req, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Select a file") {
		t.Errorf("expected file validation message, got %s", rr.Body.String())
	}
	if f.backend.submits.Load() != 0 {
		t.Error("incomplete submission must not reach the backend")
	}
}

func TestSubmitWithoutLocationNeverReachesBackend(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, true, map[string]string{"description": "big hole"})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	rr := f.do(t, req, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Set a location") {
		t.Errorf("expected location validation message, got %s", rr.Body.String())
	}
	if f.backend.submits.Load() != 0 {
		t.Error("incomplete submission must not reach the backend")
	}
}

func TestSubmitForwardsAndRecordsOwnership(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, true, map[string]string{
		"latitude": "50.45", "longitude": "30.52", "description": "deep pothole",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	rr := f.do(t, req, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.SubmitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if resp.ReportID != 42 {
		t.Errorf("expected report id 42, got %d", resp.ReportID)
	}
	if f.backend.submits.Load() != 1 {
		t.Errorf("expected one backend submission, got %d", f.backend.submits.Load())
	}

	// Ownership lands in the session cookie and shows up in the list payload.
	listReq := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	listRR := f.do(t, listReq, rr.Result().Cookies())
	var list reportListResp
	if err := json.Unmarshal(listRR.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(list.MyReportIDs) != 1 || list.MyReportIDs[0] != 42 {
		t.Errorf("expected my_report_ids [42], got %v", list.MyReportIDs)
	}

	// The delayed reconcile re-fetch fires exactly once.
	deadline := time.Now().Add(time.Second)
	for f.backend.listCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.backend.listCalls.Load() != 1 {
		t.Errorf("expected one reconcile fetch, got %d", f.backend.listCalls.Load())
	}
}

func TestUploadProxyFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/uploads/missing.jpg", nil), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected placeholder with 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("expected svg placeholder, got %s", ct)
	}
	if !strings.Contains(rr.Body.String(), "<svg") {
		t.Error("expected svg body")
	}
}

func TestLanguageSwitchSetsDurableCookie(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/language", strings.NewReader("lang=uk"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "/admin")
	rr := f.do(t, req, nil)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/admin" {
		t.Errorf("expected redirect back to referer, got %s", loc)
	}
	var langCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == i18n.LanguageCookieName {
			langCookie = c
		}
	}
	if langCookie == nil {
		t.Fatal("expected language cookie")
	}
	if langCookie.Value != "uk" {
		t.Errorf("expected uk, got %s", langCookie.Value)
	}
	if langCookie.MaxAge <= 0 {
		t.Error("language cookie should outlive the session")
	}

	// The cookie drives subsequent renders.
	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), []*http.Cookie{langCookie})
	if !strings.Contains(rr.Body.String(), "Мапа дефектів") {
		t.Error("expected ukrainian page after language switch")
	}
}

func TestNotificationLifecycle(t *testing.T) {
	f := newFixture(t)
	toast := f.srv.Notifier.Add("hello", notify.LevelInfo)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/api/notifications", nil), nil)
	var toasts []notify.Toast
	if err := json.Unmarshal(rr.Body.Bytes(), &toasts); err != nil {
		t.Fatalf("decode toasts: %v", err)
	}
	if len(toasts) != 1 || toasts[0].Message != "hello" {
		t.Fatalf("unexpected toasts: %v", toasts)
	}

	rr = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/notifications/"+jsonID(toast.ID), nil), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/api/notifications", nil), nil)
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("expected empty toast list, got %s", body)
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestStaticAssetsServed(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/assets/app.js", "/assets/style.css", "/assets/placeholder.svg"} {
		rr := f.do(t, httptest.NewRequest(http.MethodGet, path, nil), nil)
		if rr.Code != http.StatusOK {
			t.Errorf("expected 200 for %s, got %d", path, rr.Code)
		}
	}
}

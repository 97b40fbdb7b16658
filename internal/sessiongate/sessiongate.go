package sessiongate

import (
	"crypto/subtle"
	"encoding/gob"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])

	gob.Register([]int64{})
}

const (
	SessionCookieName = "roadwatch_session"

	adminAuthKey = "admin_auth"
	myReportsKey = "my_report_ids"
)

// Gate is the per-browser-session admin view gate plus the identity of "my
// submitted reports". Both live in a session cookie (MaxAge 0), so they end
// with the browser session.
//
// The passphrase check is a usability gate for casual deterrence only, not an
// access control boundary: anything this process serves must be safe to show
// to whoever holds the passphrase, and real authorization belongs on the
// backend.
type Gate struct {
	store      sessions.Store
	passphrase string
}

func New(sessionKey, passphrase string) *Gate {
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0, // session-scoped
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Gate{
		store:      store,
		passphrase: passphrase,
	}
}

func (g *Gate) session(r *http.Request) *sessions.Session {
	s, err := g.store.Get(r, SessionCookieName)
	if err != nil {
		// A stale or tampered cookie decodes to a fresh session; not fatal.
		logger.Debug("session decode failed, starting fresh", "error", err)
	}
	return s
}

// CheckAdminPassword compares the candidate against the configured
// passphrase. On success the authorized flag persists for the rest of the
// session; on failure the session is untouched.
func (g *Gate) CheckAdminPassword(w http.ResponseWriter, r *http.Request, candidate string) bool {
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(g.passphrase)) != 1 {
		return false
	}
	s := g.session(r)
	s.Values[adminAuthKey] = true
	if err := s.Save(r, w); err != nil {
		logger.Error("failed to persist admin session", "error", err)
		return false
	}
	return true
}

func (g *Gate) IsAdmin(r *http.Request) bool {
	s := g.session(r)
	authed, ok := s.Values[adminAuthKey].(bool)
	return ok && authed
}

// Logout clears the authorized flag. Idempotent.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) error {
	s := g.session(r)
	delete(s.Values, adminAuthKey)
	return s.Save(r, w)
}

// RecordOwnReport appends a submitted report id to the session, deduplicated.
func (g *Gate) RecordOwnReport(w http.ResponseWriter, r *http.Request, id int64) error {
	s := g.session(r)
	ids, _ := s.Values[myReportsKey].([]int64)
	if slices.Contains(ids, id) {
		return nil
	}
	s.Values[myReportsKey] = append(ids, id)
	return s.Save(r, w)
}

// MyReportIDs returns the ids this session has submitted, oldest first.
func (g *Gate) MyReportIDs(r *http.Request) []int64 {
	s := g.session(r)
	ids, _ := s.Values[myReportsKey].([]int64)
	return ids
}

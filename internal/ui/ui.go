package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/roadwatch/roadwatch-web/internal/appconfig"
	"github.com/roadwatch/roadwatch-web/internal/backendapi"
	"github.com/roadwatch/roadwatch-web/internal/i18n"
	"github.com/roadwatch/roadwatch-web/internal/livefeed"
	"github.com/roadwatch/roadwatch-web/internal/loaders"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/internal/notify"
	"github.com/roadwatch/roadwatch-web/internal/novelty"
	"github.com/roadwatch/roadwatch-web/internal/reportstore"
	"github.com/roadwatch/roadwatch-web/internal/sessiongate"
	"github.com/roadwatch/roadwatch-web/internal/ui/components"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

// content holds our static web server content.
//
//go:embed assets/* components/*.html index.tmpl admin.tmpl login.tmpl
var content embed.FS

func FixNames(name string) string {
	removeChars := strings.ReplaceAll(name, "_", " ")
	newName := strings.Title(strings.ToLower(removeChars))
	return newName
}

func AllLowerCase(text string) string {
	return strings.ToLower(text)
}

func FormatDateTime(dateTimeString string) string {
	date, err := time.Parse(time.RFC3339, dateTimeString)
	if err != nil {
		return dateTimeString
	}
	return date.Format("02 Jan 2006 15:04")
}

func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(bytes))
}

func Percent(confidence float64) string {
	return fmt.Sprintf("%d%%", int(confidence*100+0.5))
}

var usefulFuncs = template.FuncMap{
	"FixNames":       FixNames,
	"AllLowerCase":   AllLowerCase,
	"FormatDateTime": FormatDateTime,
	"HumanSize":      HumanSize,
	"Percent":        Percent,
}

var indexTemplate = template.Must(template.New("index.tmpl").Funcs(usefulFuncs).ParseFS(content, "index.tmpl", "components/navbar.html", "components/reportcard.html"))
var adminTemplate = template.Must(template.New("admin.tmpl").Funcs(usefulFuncs).ParseFS(content, "admin.tmpl", "components/navbar.html", "components/reportcard.html"))
var loginTemplate = template.Must(template.New("login.tmpl").Funcs(usefulFuncs).ParseFS(content, "login.tmpl", "components/navbar.html"))

var StaticHandler = http.FileServer(http.FS(content))

// Server renders the pages and owns the browser-facing JSON API. Everything a
// page shows comes from the in-process report store; the detection backend is
// only contacted for submissions and file bytes.
type Server struct {
	Cfg      *appconfig.AppConfig
	Store    *reportstore.Store
	API      *backendapi.Client
	Gate     *sessiongate.Gate
	Notifier *notify.Manager
	Novelty  *novelty.Tracker
	Loader   *loaders.Loader

	// FeedStatus reports the backend push channel state at render time.
	FeedStatus func() livefeed.Status
}

type pageData struct {
	T            i18n.Translator
	Lang         string
	Languages    []string
	Navbar       components.Navbar
	CsrfField    template.HTML
	ClientConfig template.JS
}

type reportView struct {
	models.Report
	T           i18n.Translator
	StatusLabel string
	Highlighted bool
	Mine        bool
}

type userPageData struct {
	pageData
	Reports     []reportView
	MyReports   []reportView
	DefectCount int
}

type adminPageData struct {
	pageData
	Reports      []reportView
	TotalDefects int
	Processed    int
	Pending      int
}

type loginPageData struct {
	pageData
	LoginError bool
}

func (s *Server) GetRouter(bundle *i18n.Bundle) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/admin", s.handleAdmin).Methods(http.MethodGet)
	router.HandleFunc("/admin/login", s.handleAdminLogin).Methods(http.MethodPost)
	router.HandleFunc("/admin/logout", s.handleAdminLogout).Methods(http.MethodPost)

	router.HandleFunc("/api/reports", s.handleListReports).Methods(http.MethodGet)
	router.HandleFunc("/api/reports", s.handleSubmit).Methods(http.MethodPost)
	router.HandleFunc("/api/detections", s.handleListDetections).Methods(http.MethodGet)
	router.HandleFunc("/api/notifications", s.handleListNotifications).Methods(http.MethodGet)
	router.HandleFunc("/api/notifications/{id}", s.handleDismissNotification).Methods(http.MethodDelete)

	router.HandleFunc("/uploads/{filename}", s.handleUploadProxy).Methods(http.MethodGet)
	router.HandleFunc("/language", s.handleLanguage(bundle)).Methods(http.MethodPost)

	router.PathPrefix("/assets/").Handler(StaticHandler)

	return router
}

// page assembles the data shared by every rendered page.
func (s *Server) page(r *http.Request, active string) pageData {
	tr := i18n.FromContext(r.Context())
	status := string(livefeed.StatusConnecting)
	if s.FeedStatus != nil {
		status = string(s.FeedStatus())
	}

	cc, err := json.Marshal(map[string]any{
		"reconnectDelayMs":     s.Cfg.FeedReconnectDelay.Milliseconds(),
		"heartbeatIntervalMs":  s.Cfg.FeedHeartbeatInterval.Milliseconds(),
		"highlightTtlMs":       s.Cfg.NoveltyHighlightTTL.Milliseconds(),
		"geolocationTimeoutMs": s.Cfg.GeolocationTimeout.Milliseconds(),
		"lang":                 tr.Lang(),
	})
	if err != nil {
		logger.Error("failed to encode client config", "error", err)
		cc = []byte("{}")
	}

	return pageData{
		T:            tr,
		Lang:         tr.Lang(),
		Languages:    []string{"en", "uk"},
		Navbar:       components.NewNavbar(active, s.Gate.IsAdmin(r), status),
		CsrfField:    csrf.TemplateField(r),
		ClientConfig: template.JS(cc),
	}
}

var statusLabelKeys = map[string]string{
	models.StatusPending:   "statusPending",
	models.StatusProcessed: "statusProcessed",
	models.StatusNoDefects: "statusNoDefects",
	models.StatusFailed:    "statusFailed",
}

func (s *Server) reportViews(r *http.Request, reports []models.Report) []reportView {
	tr := i18n.FromContext(r.Context())
	mine := make(map[int64]bool)
	for _, id := range s.Gate.MyReportIDs(r) {
		mine[id] = true
	}
	views := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		label := rep.Status
		if key, ok := statusLabelKeys[rep.Status]; ok {
			label = tr.T(key)
		}
		views = append(views, reportView{
			Report:      rep,
			T:           tr,
			StatusLabel: label,
			Highlighted: s.Novelty.IsHighlighted(rep.ID),
			Mine:        mine[rep.ID],
		})
	}
	return views
}

func (s *Server) handleIndex(rw http.ResponseWriter, r *http.Request) {
	views := s.reportViews(r, s.Store.Snapshot())

	var myReports []reportView
	defects := 0
	for _, v := range views {
		defects += len(v.Detections)
		if v.Mine {
			myReports = append(myReports, v)
		}
	}

	data := userPageData{
		pageData:    s.page(r, "report"),
		Reports:     views,
		MyReports:   myReports,
		DefectCount: defects,
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(rw, &data); err != nil {
		logger.Error("failed to render index", "error", err)
	}
}

func (s *Server) handleAdmin(rw http.ResponseWriter, r *http.Request) {
	if !s.Gate.IsAdmin(r) {
		data := loginPageData{pageData: s.page(r, "admin")}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := loginTemplate.Execute(rw, &data); err != nil {
			logger.Error("failed to render login", "error", err)
		}
		return
	}

	views := s.reportViews(r, s.Store.Snapshot())
	data := adminPageData{
		pageData: s.page(r, "admin"),
		Reports:  views,
	}
	for _, v := range views {
		data.TotalDefects += len(v.Detections)
		switch v.Status {
		case models.StatusProcessed:
			data.Processed++
		case models.StatusPending:
			data.Pending++
		}
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminTemplate.Execute(rw, &data); err != nil {
		logger.Error("failed to render admin", "error", err)
	}
}

func (s *Server) handleAdminLogin(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	if s.Gate.CheckAdminPassword(rw, r, r.PostFormValue("password")) {
		http.Redirect(rw, r, "/admin", http.StatusFound)
		return
	}

	tr := i18n.FromContext(r.Context())
	s.Notifier.Add(tr.T("toastWrongPassword"), notify.LevelError)
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(http.StatusUnauthorized)
	data := loginPageData{pageData: s.page(r, "admin"), LoginError: true}
	if err := loginTemplate.Execute(rw, &data); err != nil {
		logger.Error("failed to render login", "error", err)
	}
}

func (s *Server) handleAdminLogout(rw http.ResponseWriter, r *http.Request) {
	if err := s.Gate.Logout(rw, r); err != nil {
		logger.Error("failed to clear admin session", "error", err)
	}
	http.Redirect(rw, r, "/", http.StatusFound)
}

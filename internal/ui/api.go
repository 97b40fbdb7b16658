package ui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/roadwatch/roadwatch-web/internal/backendapi"
	"github.com/roadwatch/roadwatch-web/internal/i18n"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/internal/notify"
)

const maxUploadMemory = 32 << 20

// reportListResp is the page-refresh payload: the full merged snapshot plus
// the per-request view state the page script needs to decorate it.
type reportListResp struct {
	Reports     []models.Report `json:"reports"`
	Highlighted []int64         `json:"highlighted"`
	MyReportIDs []int64         `json:"my_report_ids"`
	FeedStatus  string          `json:"feed_status"`
}

func writeJSON(rw http.ResponseWriter, status int, payload any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(payload); err != nil {
		logger.Error("failed to encode json response", "error", err)
	}
}

func writeDetail(rw http.ResponseWriter, status int, detail string) {
	writeJSON(rw, status, map[string]string{"detail": detail})
}

func (s *Server) handleListReports(rw http.ResponseWriter, r *http.Request) {
	status := ""
	if s.FeedStatus != nil {
		status = string(s.FeedStatus())
	}
	myIDs := s.Gate.MyReportIDs(r)
	if myIDs == nil {
		myIDs = []int64{}
	}
	writeJSON(rw, http.StatusOK, reportListResp{
		Reports:     s.Store.Snapshot(),
		Highlighted: s.Novelty.Highlighted(),
		MyReportIDs: myIDs,
		FeedStatus:  status,
	})
}

func (s *Server) handleListDetections(rw http.ResponseWriter, r *http.Request) {
	detections, err := s.API.ListDetections(r.Context())
	if err != nil {
		logger.Error("failed to fetch detection log", "error", err)
		// Degrade to the detections already merged into the snapshot.
		detections = []models.Detection{}
		for _, rep := range s.Store.Snapshot() {
			detections = append(detections, rep.Detections...)
		}
	}
	writeJSON(rw, http.StatusOK, detections)
}

// handleSubmit validates a report locally, forwards it to the backend and
// remembers the resulting id as this session's own. A submission missing its
// file or location never leaves this process.
func (s *Server) handleSubmit(rw http.ResponseWriter, r *http.Request) {
	tr := i18n.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(rw, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(rw, http.StatusBadRequest, tr.T("toastNoFile"))
		return
	}
	defer file.Close()

	lat, latErr := strconv.ParseFloat(r.PostFormValue("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(r.PostFormValue("longitude"), 64)
	if latErr != nil || lonErr != nil {
		writeDetail(rw, http.StatusBadRequest, tr.T("toastNoLoc"))
		return
	}

	resp, err := s.API.Submit(r.Context(), backendapi.Submission{
		Filename:    header.Filename,
		File:        file,
		Description: r.PostFormValue("description"),
		Latitude:    lat,
		Longitude:   lon,
	})
	if err != nil {
		var subErr *backendapi.SubmitError
		if errors.As(err, &subErr) {
			s.Notifier.Add(subErr.Detail, notify.LevelError)
			writeDetail(rw, subErr.StatusCode, subErr.Detail)
			return
		}
		logger.Error("report submission failed", "error", err)
		writeDetail(rw, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.Gate.RecordOwnReport(rw, r, resp.ReportID); err != nil {
		logger.Error("failed to record own report", "reportId", resp.ReportID, "error", err)
	}
	s.Notifier.Add(tr.T("toastSubmitOk"), notify.LevelSuccess)

	// The push channel usually carries the resolution first; the delayed
	// re-fetch reconciles the snapshot in case it does not.
	s.Loader.ScheduleReconcile(context.WithoutCancel(r.Context()))

	writeJSON(rw, http.StatusOK, resp)
}

func (s *Server) handleListNotifications(rw http.ResponseWriter, r *http.Request) {
	toasts := s.Notifier.Active()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	writeJSON(rw, http.StatusOK, toasts)
}

func (s *Server) handleDismissNotification(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeDetail(rw, http.StatusBadRequest, "invalid notification id")
		return
	}
	s.Notifier.Dismiss(id)
	rw.WriteHeader(http.StatusNoContent)
}

// handleUploadProxy streams a report's media from the backend so browsers
// never talk to it directly. Missing or failed files fall back to a neutral
// placeholder image rather than a broken tag.
func (s *Server) handleUploadProxy(rw http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	resp, err := s.API.FetchUpload(r.Context(), filename)
	if err != nil {
		logger.Debug("upload fetch failed, serving placeholder", "filename", filename, "error", err)
		rw.Header().Set("Content-Type", "image/svg+xml")
		placeholder, readErr := content.ReadFile("assets/placeholder.svg")
		if readErr != nil {
			http.NotFound(rw, r)
			return
		}
		rw.Write(placeholder)
		return
	}
	defer resp.Body.Close()

	for _, h := range []string{"Content-Type", "Content-Length", "Last-Modified"} {
		if v := resp.Header.Get(h); v != "" {
			rw.Header().Set(h, v)
		}
	}
	rw.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(rw, resp.Body); err != nil {
		logger.Debug("upload stream interrupted", "filename", filename, "error", err)
	}
}

// handleLanguage switches the page language with a durable cookie, unlike the
// session-scoped admin cookie.
func (s *Server) handleLanguage(bundle *i18n.Bundle) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		lang := bundle.Match(r.PostFormValue("lang"), "")
		http.SetCookie(rw, &http.Cookie{
			Name:     i18n.LanguageCookieName,
			Value:    lang,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		target := r.Referer()
		if target == "" {
			target = "/"
		}
		http.Redirect(rw, r, target, http.StatusFound)
	}
}

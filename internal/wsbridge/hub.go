package wsbridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roadwatch/roadwatch-web/internal/event"
	"github.com/roadwatch/roadwatch-web/internal/metrics"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
	"nhooyr.io/websocket"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

const writeTimeout = 5 * time.Second

// Hub mirrors the backend push channel out to every open page. Browsers
// connect to this process's /ws; report upserts and feed status changes are
// fanned out as JSON events in the same envelope shape the backend uses, so
// the page script handles both identically.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*websocket.Conn),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Debug("browser socket accept failed", "error", err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	metrics.BrowserSockets.Inc()
	logger.Debug("browser socket connected", "connId", id)

	defer func() {
		h.drop(id)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	// Browsers only ever send keep-alive pings; drain and discard until the
	// socket goes away.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	_, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		metrics.BrowserSockets.Dec()
		logger.Debug("browser socket disconnected", "connId", id)
	}
}

// Broadcast sends one payload to every connected page. Dead connections are
// dropped on write failure; a failed page never blocks the rest.
func (h *Hub) Broadcast(ctx context.Context, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode broadcast payload", "error", err)
		return
	}

	h.mu.Lock()
	targets := make(map[string]*websocket.Conn, len(h.conns))
	for id, conn := range h.conns {
		targets[id] = conn
	}
	h.mu.Unlock()

	for id, conn := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := conn.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			conn.Close(websocket.StatusGoingAway, "write failed")
			h.drop(id)
		}
	}
}

// HandleReportEvent is the bus subscriber for store mutations.
func (h *Hub) HandleReportEvent(ctx context.Context, e *event.ReportUpserted) error {
	h.Broadcast(ctx, map[string]any{
		"event":  "new_report",
		"report": e.Report,
	})
	return nil
}

// HandleStatusEvent is the bus subscriber for live feed transitions.
func (h *Hub) HandleStatusEvent(ctx context.Context, e *event.FeedStatusChanged) error {
	h.Broadcast(ctx, map[string]any{
		"event":  "feed_status",
		"status": e.Status,
	})
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*websocket.Conn)
	h.mu.Unlock()

	for range conns {
		metrics.BrowserSockets.Dec()
	}
	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "server shutdown")
	}
	return nil
}

func (h *Hub) Health(_ context.Context) (rsp models.ServiceHealthResp) {
	rsp.Service = "Browser Fan-out"
	rsp.Status = models.STATUS_UP
	rsp.HealthIssue = models.HEALTH_ISSUE_NONE
	return rsp
}

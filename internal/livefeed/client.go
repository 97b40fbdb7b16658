package livefeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/event"
	"github.com/roadwatch/roadwatch-web/internal/metrics"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/internal/reportstore"
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

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

const (
	DefaultReconnectDelay    = 3 * time.Second
	DefaultHeartbeatInterval = 25 * time.Second

	// EventNewReport is the only inbound event type this client handles.
	// Everything else is a forward-compatible no-op.
	EventNewReport = "new_report"

	heartbeatPayload = "ping"
)

// envelope is the wire shape of one push event.
type envelope struct {
	Event  string        `json:"event"`
	Report models.Report `json:"report"`
}

// Client keeps a continuously available push channel from the backend,
// independent of any single connection's lifetime. Connection drops move it
// to disconnected and a reconnect fires after a fixed delay; only context
// cancellation stops the cycle.
type Client struct {
	FeedURL           string
	Store             *reportstore.Store
	ReconnectDelay    time.Duration
	HeartbeatInterval time.Duration

	// StatusEvents receives one event per state transition.
	StatusEvents event.Publishers[*event.FeedStatusChanged]

	mu     sync.RWMutex
	status Status
}

func New(feedURL string, store *reportstore.Store) *Client {
	return &Client{
		FeedURL:           feedURL,
		Store:             store,
		ReconnectDelay:    DefaultReconnectDelay,
		HeartbeatInterval: DefaultHeartbeatInterval,
		status:            StatusConnecting,
	}
}

func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) setStatus(ctx context.Context, s Status) {
	c.mu.Lock()
	prev := c.status
	c.status = s
	c.mu.Unlock()

	if prev == s {
		return
	}
	if s == StatusConnected {
		metrics.FeedConnected.Set(1)
	} else {
		metrics.FeedConnected.Set(0)
	}
	c.StatusEvents.Publish(ctx, event.NewFeedStatusChangedEvent(string(s)))
}

// Run drives the connect / read / reconnect cycle until ctx is cancelled.
// Teardown closes the active connection and cancels any pending reconnect
// timer; it never reconnects after cancellation.
func (c *Client) Run(ctx context.Context) error {
	for {
		c.setStatus(ctx, StatusConnecting)
		metrics.FeedReconnects.Inc()

		conn, _, err := websocket.Dial(ctx, c.FeedURL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("push channel dial failed", "url", c.FeedURL, "error", err)
		} else {
			c.setStatus(ctx, StatusConnected)
			logger.Info("push channel connected", "url", c.FeedURL)
			c.readUntilClosed(ctx, conn)
			conn.Close(websocket.StatusNormalClosure, "teardown")
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.setStatus(ctx, StatusDisconnected)

		delay := c.ReconnectDelay
		if delay <= 0 {
			delay = DefaultReconnectDelay
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// readUntilClosed consumes messages until the connection errors or ctx is
// cancelled. A heartbeat keeps intermediaries from idle-closing the socket;
// heartbeat send failures are not fatal, the next read error handles them.
func (c *Client) readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go c.heartbeat(hbCtx, conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("push channel closed", "error", err, "code", websocket.CloseStatus(err))
			}
			return
		}
		c.dispatch(ctx, data)
	}
}

func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn) {
	interval := c.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := conn.Write(ctx, websocket.MessageText, []byte(heartbeatPayload)); err != nil {
				logger.Debug("heartbeat send failed", "error", err)
			}
		}
	}
}

// dispatch handles one inbound message. Malformed payloads are dropped and
// unknown event types ignored; neither may take the channel down.
func (c *Client) dispatch(ctx context.Context, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.PushEvents.WithLabelValues(metrics.OutcomeMalformed).Inc()
		logger.Debug("dropping malformed push payload", "error", err)
		return
	}
	if env.Event != EventNewReport {
		metrics.PushEvents.WithLabelValues(metrics.OutcomeIgnored).Inc()
		logger.Debug("ignoring unknown push event", "event", env.Event)
		return
	}
	metrics.PushEvents.WithLabelValues(metrics.OutcomeMerged).Inc()
	c.Store.Merge(ctx, env.Report)
}

func (c *Client) Health(_ context.Context) (rsp models.ServiceHealthResp) {
	rsp.Service = models.LIVE_FEED
	rsp.Status = models.STATUS_UP
	rsp.HealthIssue = models.HEALTH_ISSUE_NONE
	if c.Status() != StatusConnected {
		rsp.Status = models.STATUS_DEGRADED
		rsp.HealthIssue = "push channel " + string(c.Status())
	}
	return rsp
}

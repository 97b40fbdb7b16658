package wsbridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/event"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"nhooyr.io/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial hub: %v", err)
	}
	return conn
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dialHub(t, srv)
	defer a.Close(websocket.StatusNormalClosure, "")
	b := dialHub(t, srv)
	defer b.Close(websocket.StatusNormalClosure, "")

	err := hub.HandleReportEvent(context.Background(),
		event.NewReportUpsertedEvent(models.Report{ID: 3, Status: models.StatusPending}, "push"))
	if err != nil {
		t.Fatalf("handle report event: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, data, err := conn.Read(ctx)
		cancel()
		if err != nil {
			t.Fatalf("client read: %v", err)
		}
		var env struct {
			Event  string        `json:"event"`
			Report models.Report `json:"report"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode broadcast: %v", err)
		}
		if env.Event != "new_report" || env.Report.ID != 3 {
			t.Errorf("unexpected broadcast: %+v", env)
		}
	}
}

func TestFeedStatusBroadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")

	hub.HandleStatusEvent(context.Background(), event.NewFeedStatusChangedEvent("disconnected"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	var env struct {
		Event  string `json:"event"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != "feed_status" || env.Status != "disconnected" {
		t.Errorf("unexpected status broadcast: %+v", env)
	}
}

func TestDeadClientIsDropped(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	conn.Close(websocket.StatusNormalClosure, "going away")

	// Both broadcasts must survive the dead connection.
	ctx := context.Background()
	hub.Broadcast(ctx, map[string]string{"event": "feed_status", "status": "connected"})
	hub.Broadcast(ctx, map[string]string{"event": "feed_status", "status": "connected"})
}

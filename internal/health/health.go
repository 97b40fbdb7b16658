package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/roadwatch/roadwatch-web/internal/models"
)

// Checkable is implemented by every external dependency the app talks to.
type Checkable interface {
	Health(ctx context.Context) models.ServiceHealthResp
}

var (
	mu       sync.Mutex
	checkers []Checkable
)

func Register(c ...Checkable) {
	mu.Lock()
	defer mu.Unlock()
	for _, checker := range c {
		if checker != nil {
			checkers = append(checkers, checker)
		}
	}
}

// Reset clears the registry. Only used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	checkers = nil
}

type AppHealthResp struct {
	Status   string                     `json:"status"`
	Services []models.ServiceHealthResp `json:"services"`
}

func Check(ctx context.Context) AppHealthResp {
	mu.Lock()
	registered := make([]Checkable, len(checkers))
	copy(registered, checkers)
	mu.Unlock()

	rsp := AppHealthResp{
		Status: models.STATUS_UP,
	}
	for _, c := range registered {
		svcRsp := c.Health(ctx)
		if svcRsp.Status != models.STATUS_UP {
			rsp.Status = models.STATUS_DEGRADED
		}
		rsp.Services = append(rsp.Services, svcRsp)
	}
	return rsp
}

func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp := Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rsp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

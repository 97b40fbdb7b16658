package loaders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/internal/notify"
	"github.com/roadwatch/roadwatch-web/internal/reportstore"
)

type fakeAPI struct {
	reports []models.Report
	err     error
	calls   atomic.Int32
}

func (f *fakeAPI) ListReports(ctx context.Context) ([]models.Report, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.reports, nil
}

type fakeCache struct {
	saved  []models.Report
	stored []models.Report
}

func (f *fakeCache) Save(ctx context.Context, reports []models.Report) error {
	f.saved = reports
	return nil
}

func (f *fakeCache) Load(ctx context.Context) ([]models.Report, error) {
	return f.stored, nil
}

func TestLoadReplacesStore(t *testing.T) {
	ctx := context.Background()
	store := reportstore.New()
	api := &fakeAPI{reports: []models.Report{
		{ID: 2, Status: models.StatusProcessed},
		{ID: 1, Status: models.StatusPending},
	}}
	cache := &fakeCache{}
	l := &Loader{API: api, Store: store, Cache: cache, Notifier: notify.NewManager()}

	if err := l.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 reports, got %d", store.Len())
	}
	if len(cache.saved) != 2 {
		t.Errorf("snapshot not saved, got %d", len(cache.saved))
	}
}

func TestLoadFailureLeavesStoreAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := reportstore.New()
	notifier := notify.NewManager()
	l := &Loader{
		API:      &fakeAPI{err: errors.New("connection refused")},
		Store:    store,
		Notifier: notifier,
	}

	if err := l.Load(ctx); err == nil {
		t.Fatal("expected error")
	}
	if store.Len() != 0 {
		t.Errorf("failed fetch mutated the store: %d reports", store.Len())
	}
	if !store.Primed() {
		t.Error("failed fetch must still prime the store so pushes flow")
	}

	toasts := notifier.Active()
	if len(toasts) != 1 || toasts[0].Level != notify.LevelError {
		t.Errorf("expected one error toast, got %+v", toasts)
	}
}

func TestWarmSeedsFromCache(t *testing.T) {
	ctx := context.Background()
	store := reportstore.New()
	l := &Loader{
		API:   &fakeAPI{},
		Store: store,
		Cache: &fakeCache{stored: []models.Report{{ID: 4, Status: models.StatusProcessed}}},
	}

	l.Warm(ctx)
	if _, ok := store.Get(4); !ok {
		t.Error("warm start did not seed the store")
	}
}

func TestScheduleReconcileFetchesOnceAfterDelay(t *testing.T) {
	ctx := context.Background()
	store := reportstore.New()
	store.ReplaceAll(ctx, nil)
	api := &fakeAPI{reports: []models.Report{{ID: 9, Status: models.StatusPending}}}
	l := &Loader{API: api, Store: store, ReconcileDelay: 20 * time.Millisecond}

	l.ScheduleReconcile(ctx)

	deadline := time.After(2 * time.Second)
	for api.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("reconcile never fetched")
		case <-time.After(5 * time.Millisecond):
		}
	}
	// Give the replace a moment to land.
	waitDeadline := time.After(time.Second)
	for store.Len() == 0 {
		select {
		case <-waitDeadline:
			t.Fatal("reconcile did not update the store")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if api.calls.Load() != 1 {
		t.Errorf("expected exactly one reconcile fetch, got %d", api.calls.Load())
	}
}

func TestScheduleReconcileCancelable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := reportstore.New()
	store.ReplaceAll(ctx, nil)
	api := &fakeAPI{reports: []models.Report{{ID: 1}}}
	l := &Loader{API: api, Store: store, ReconcileDelay: 20 * time.Millisecond}

	timer := l.ScheduleReconcile(ctx)
	timer.Stop()
	cancel()

	time.Sleep(60 * time.Millisecond)
	if api.calls.Load() != 0 {
		t.Errorf("reconcile ran after cancellation: %d calls", api.calls.Load())
	}
}

package loaders

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/internal/notify"
	"github.com/roadwatch/roadwatch-web/internal/reportstore"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

const DefaultReconcileDelay = 500 * time.Millisecond

type ReportLister interface {
	ListReports(ctx context.Context) ([]models.Report, error)
}

// Snapshotter is the optional warm-start cache.
type Snapshotter interface {
	Save(ctx context.Context, reports []models.Report) error
	Load(ctx context.Context) ([]models.Report, error)
}

// Loader moves full report lists from the backend into the store: the warm
// start from the snapshot cache, the initial fetch, and the short-delay
// reconcile after a local submission.
type Loader struct {
	API            ReportLister
	Store          *reportstore.Store
	Cache          Snapshotter // may be nil
	Notifier       *notify.Manager
	ReconcileDelay time.Duration
}

// Warm seeds the store from the snapshot cache so the UI has something to
// show while the initial fetch is outstanding. Best effort; a miss or a
// cache error is only logged.
func (l *Loader) Warm(ctx context.Context) {
	if l.Cache == nil {
		return
	}
	reports, err := l.Cache.Load(ctx)
	if err != nil {
		logger.Warn("snapshot cache load failed", "error", err)
		return
	}
	if reports == nil {
		return
	}
	logger.Info("store warmed from snapshot cache", "reports", len(reports))
	l.Store.ReplaceAll(ctx, reports)
}

// Load performs the initial fetch. On failure the store is left untouched
// (but primed, so buffered push events flow) and the user sees a transient
// notification; the error is returned for logging, never fatal.
func (l *Loader) Load(ctx context.Context) error {
	reports, err := l.API.ListReports(ctx)
	if err != nil {
		logger.Error("initial report fetch failed", "error", err)
		if l.Notifier != nil {
			l.Notifier.Add("Could not load reports", notify.LevelError)
		}
		l.Store.Prime(ctx)
		return err
	}

	l.Store.ReplaceAll(ctx, reports)
	l.saveSnapshot(ctx)
	return nil
}

// ScheduleReconcile re-fetches the full list once after the configured delay,
// reconciling with the authoritative server state after a local submission.
// Failures are silent; the live feed covers the gap.
func (l *Loader) ScheduleReconcile(ctx context.Context) *time.Timer {
	delay := l.ReconcileDelay
	if delay <= 0 {
		delay = DefaultReconcileDelay
	}
	return time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		reports, err := l.API.ListReports(ctx)
		if err != nil {
			logger.Debug("reconcile fetch failed", "error", err)
			return
		}
		l.Store.ReplaceAll(ctx, reports)
		l.saveSnapshot(ctx)
	})
}

func (l *Loader) saveSnapshot(ctx context.Context) {
	if l.Cache == nil {
		return
	}
	if err := l.Cache.Save(ctx, l.Store.Snapshot()); err != nil {
		logger.Warn("snapshot cache save failed", "error", err)
	}
}

package cli

import (
	"context"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roadwatch/roadwatch-web/internal/appconfig"
	"github.com/roadwatch/roadwatch-web/internal/backendapi"
	"github.com/roadwatch/roadwatch-web/internal/event"
	"github.com/roadwatch/roadwatch-web/internal/health"
	"github.com/roadwatch/roadwatch-web/internal/i18n"
	"github.com/roadwatch/roadwatch-web/internal/livefeed"
	"github.com/roadwatch/roadwatch-web/internal/loaders"
	"github.com/roadwatch/roadwatch-web/internal/middleware"
	"github.com/roadwatch/roadwatch-web/internal/notify"
	"github.com/roadwatch/roadwatch-web/internal/novelty"
	"github.com/roadwatch/roadwatch-web/internal/reportstore"
	"github.com/roadwatch/roadwatch-web/internal/sessiongate"
	"github.com/roadwatch/roadwatch-web/internal/storecache"
	"github.com/roadwatch/roadwatch-web/internal/ui"
	"github.com/roadwatch/roadwatch-web/internal/wsbridge"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

// Serve wires the whole frontend together: the merged report store, the
// backend push channel, the browser fan-out hub and the page server. The
// returned close func stops everything the background context does not.
func Serve(ctx context.Context, appConfig appconfig.AppConfig) (http.Handler, func(context.Context) error, error) {
	logger = sloger.With("pkg", "cli")

	store := reportstore.New()
	tracker := novelty.New(appConfig.NoveltyWindowSize, appConfig.NoveltyHighlightTTL)
	notifier := notify.NewManager()
	hub := wsbridge.NewHub()

	api := backendapi.New(appConfig.BackendURL)
	health.Register(api)

	// --------------------------------------------------------------
	// 	Event buses: store mutations and feed status transitions
	// --------------------------------------------------------------
	reportBus := &event.MemoryBus[*event.ReportUpserted]{Chan: make(chan *event.ReportUpserted, 100)}
	reportPublishers, err := NewEventPublisher(ctx, appConfig, reportBus)
	if err != nil {
		return nil, nil, err
	}
	store.Events = reportPublishers
	health.Register(reportBus)

	statusBus := &event.MemoryBus[*event.FeedStatusChanged]{Chan: make(chan *event.FeedStatusChanged, 10)}
	statusPublishers, err := NewEventPublisher(ctx, appConfig, statusBus)
	if err != nil {
		return nil, nil, err
	}

	go reportBus.Listen(ctx, TracingProcessor(func(c context.Context, e *event.ReportUpserted) error {
		tracker.Observe(store.Snapshot())
		return hub.HandleReportEvent(c, e)
	}))
	go statusBus.Listen(ctx, TracingProcessor(hub.HandleStatusEvent))

	// --------------------------------------------------------------
	// 	Optional redis snapshot cache for warm starts
	// --------------------------------------------------------------
	var cache *storecache.Cache
	var snapshotter loaders.Snapshotter
	if appConfig.RedisConnectionString != "" {
		cache, err = storecache.New(appConfig.RedisConnectionString)
		if err != nil {
			logger.Error("error connecting snapshot cache, continuing without", "error", err)
		} else {
			snapshotter = cache
			health.Register(cache)
		}
	}

	loader := &loaders.Loader{
		API:            api,
		Store:          store,
		Cache:          snapshotter,
		Notifier:       notifier,
		ReconcileDelay: appConfig.ReconcileDelay,
	}
	loader.Warm(ctx)
	go func() {
		// The store buffers any push events that land before this finishes.
		loader.Load(ctx)
		tracker.Observe(store.Snapshot())
	}()

	// --------------------------------------------------------------
	// 	Backend push channel
	// --------------------------------------------------------------
	feed := livefeed.New(appConfig.FeedURL(), store)
	feed.ReconnectDelay = appConfig.FeedReconnectDelay
	feed.HeartbeatInterval = appConfig.FeedHeartbeatInterval
	feed.StatusEvents = statusPublishers
	health.Register(feed)
	go feed.Run(ctx)

	// --------------------------------------------------------------
	// 	Page server and routes
	// --------------------------------------------------------------
	bundle, err := i18n.Load(appConfig.DefaultLanguage)
	if err != nil {
		return nil, nil, err
	}

	uiServer := &ui.Server{
		Cfg:        &appConfig,
		Store:      store,
		API:        api,
		Gate:       sessiongate.New(appConfig.SessionKey, appConfig.AdminPassphrase),
		Notifier:   notifier,
		Novelty:    tracker,
		Loader:     loader,
		FeedStatus: feed.Status,
	}

	router := uiServer.GetRouter(bundle)
	router.Handle("/ws", hub)
	router.Handle("/info", appconfig.Handler())
	router.Handle("/health", health.Handler())
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/version", &VersionHandler{})
	setupMetrics()

	protect := csrf.Protect(
		[]byte(appConfig.CsrfToken),
		csrf.Secure(appConfig.Environment != "DEV"),
		csrf.Path("/"),
	)

	var handler http.Handler = router
	handler = protect(handler)
	handler = middleware.Language(bundle)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.TracingMiddleware(handler)

	closer := func(shutdownCtx context.Context) error {
		tracker.Stop()
		hub.Close()
		reportPublishers.Close()
		statusPublishers.Close()
		if cache != nil {
			return cache.Close()
		}
		return nil
	}

	return handler, closer, nil
}

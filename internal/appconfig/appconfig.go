package appconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/roadwatch/roadwatch-web/pkg/sloger"
	"github.com/sethvargo/go-envconfig"
) // .import

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

type RootResp struct {
	System     string `json:"system"`
	Product    string `json:"product"`
	App        string `json:"app"`
	ServerTime string `json:"server_time"`
} // .rootResp

type AppConfig struct {

	// App and for Logger
	LoggerDebugOn bool `env:"LOGGER_DEBUG_ON"`

	Environment string `env:"ENVIRONMENT, default=DEV"`

	// Server
	ServerProtocol string `env:"SERVER_PROTOCOL, default=http"`
	ServerHostname string `env:"SERVER_HOSTNAME, default=localhost"`
	ServerPort     string `env:"SERVER_PORT, default=8081"`

	// Detection backend this frontend consumes
	BackendURL     string `env:"BACKEND_URL, default=http://localhost:8000"`
	BackendFeedURL string // derived from BackendURL unless overridden
	FeedURLOveride string `env:"BACKEND_FEED_URL"`

	// Live feed timing
	FeedReconnectDelay    time.Duration `env:"FEED_RECONNECT_DELAY, default=3s"`
	FeedHeartbeatInterval time.Duration `env:"FEED_HEARTBEAT_INTERVAL, default=25s"`

	// Novelty highlighting
	NoveltyWindowSize   int           `env:"NOVELTY_WINDOW_SIZE, default=10"`
	NoveltyHighlightTTL time.Duration `env:"NOVELTY_HIGHLIGHT_TTL, default=8s"`

	// Submission reconciliation re-fetch
	ReconcileDelay time.Duration `env:"RECONCILE_DELAY, default=500ms"`

	// Browser geolocation bound, passed to the page script
	GeolocationTimeout time.Duration `env:"GEOLOCATION_TIMEOUT, default=15s"`

	// Admin gate. This is a view gate for casual deterrence only; it is not
	// an access control boundary and real authorization has to live on the
	// backend.
	AdminPassphrase string `env:"ADMIN_PASSPHRASE, default=wsuk"`

	SessionKey string `env:"SESSION_KEY, default=wDLAbGbzPr2kq4HcTrqcwYKuQAFhVUGC"`
	CsrfToken  string `env:"CSRF_TOKEN, default=1qQBJumxRABFBLvaz5PSXBcXLE84viE42x4Aev359DvLSvzjbXSme3whhFkESatW"`
	// WARNING: the default SessionKey and CsrfToken values are for local development
	// use only, they need to be replaced by secret 32 byte strings before being used
	// in production

	// Optional report list snapshot cache
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING"`

	// Local event journal, disabled when empty
	LocalEventsFolder string `env:"LOCAL_EVENTS_FOLDER"`

	// i18n
	DefaultLanguage string `env:"DEFAULT_LANGUAGE, default=en"`

	EventMaxRetryCount int `env:"EVENT_MAX_RETRY_COUNT, default=3"`
} // .AppConfig

func (conf *AppConfig) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jsonResp, err := json.Marshal(RootResp{
		System:     "ROADWATCH",
		Product:    "DEFECT REPORTING",
		App:        "web server",
		ServerTime: time.Now().Format(time.RFC3339Nano),
	}) // .jsonResp
	if err != nil {
		errMsg := "error marshal json for root response"
		logger.Error(errMsg, "error", err.Error())
		http.Error(w, errMsg, http.StatusInternalServerError)
		return
	} // .if

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonResp)
}

var LoadedConfig = &AppConfig{}

func Handler() http.Handler {
	return LoadedConfig
}

// FeedURL is the websocket endpoint of the backend push channel.
func (conf *AppConfig) FeedURL() string {
	if conf.FeedURLOveride != "" {
		return conf.FeedURLOveride
	}
	u := conf.BackendURL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/ws"
}

// ParseConfig loads app configuration based on environment variables and returns AppConfig struct
func ParseConfig(ctx context.Context) (AppConfig, error) {

	var ac AppConfig
	if err := envconfig.Process(ctx, &ac); err != nil {
		return AppConfig{}, err
	} // .if

	if ac.BackendURL == "" {
		return AppConfig{}, &MissingConfigError{ConfigName: "BackendURL"}
	}
	ac.BackendURL = strings.TrimSuffix(ac.BackendURL, "/")
	ac.BackendFeedURL = ac.FeedURL()

	if ac.NoveltyWindowSize <= 0 {
		return AppConfig{}, fmt.Errorf("novelty window size must be positive, got %d", ac.NoveltyWindowSize)
	}

	LoadedConfig = &ac
	return ac, nil
} // .ParseConfig

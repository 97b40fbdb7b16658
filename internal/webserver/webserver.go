package webserver

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/roadwatch/roadwatch-web/internal/appconfig"
	"github.com/roadwatch/roadwatch-web/internal/metrics"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
) // .import

// ServerWeb, main RoadWatch web server, fronts the page and api handlers
type ServerWeb struct {
	AppConfig appconfig.AppConfig

	logger *slog.Logger
} // .ServerWeb

// New returns a custom server for the RoadWatch web frontend ready to serve
func New(appConfig appconfig.AppConfig) (ServerWeb, error) {

	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger := sloger.With("pkg", pkgParts[len(pkgParts)-1])

	return ServerWeb{
		AppConfig: appConfig,
		logger:    logger,
	}, nil // .return

} // New

// HttpServer, wraps the app handler with http metrics and can customize the server with port address
func (sw *ServerWeb) HttpServer(handler http.Handler) http.Server {

	return http.Server{

		Addr: ":" + sw.AppConfig.ServerPort,

		Handler: metrics.TrackHTTP(handler),

	} // .httpServer
} // .HttpServer

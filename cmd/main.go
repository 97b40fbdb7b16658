package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"testing"

	"github.com/joho/godotenv"
	"github.com/roadwatch/roadwatch-web/cmd/cli"
	"github.com/roadwatch/roadwatch-web/internal/appconfig"
	"github.com/roadwatch/roadwatch-web/internal/webserver"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
) // .import

const appMainExitCode = 1

var (
	appConfig appconfig.AppConfig
	logger    *slog.Logger
)

// NOTE: this large init file may be an antipattern.
// A main reason for it is to enable to cross cutting logging aspect.
// If another way is found to manage that this should be moved to main.
func init() {
	ctx := context.Background()

	buildInfo, _ := debug.ReadBuildInfo()
	logInfo := []any{"buildInfo.Main.Path", buildInfo.Main.Path}
	slog.With(logInfo...)
	// ------------------------------------------------------------------
	// parse and load cli flags
	// ------------------------------------------------------------------
	if !testing.Testing() {
		if err := cli.ParseFlags(); err != nil {
			slog.Error("error starting app, error parsing cli flags", "error", err)
			os.Exit(appMainExitCode)
		} // .if
	}

	if cli.Flags.AppConfigPath != "" {
		slog.Info("Loading environment from", "file", cli.Flags.AppConfigPath)
		if err := godotenv.Load(cli.Flags.AppConfigPath); err != nil {
			slog.Warn("no local configuration file loaded", "error", err)
		} // .if
	}

	// ------------------------------------------------------------------
	// parse and load config from os exported
	// ------------------------------------------------------------------
	var err error
	appConfig, err = appconfig.ParseConfig(ctx)
	if err != nil {
		slog.Error("error starting app, error parsing app config", "error", err)
		os.Exit(appMainExitCode)
	} // .if

	// ------------------------------------------------------------------
	// configure app custom logging
	// ------------------------------------------------------------------
	logInfo = append(logInfo, "pkg", "main")
	logger = cli.AppLogger(appConfig).With(logInfo...)
	sloger.SetDefaultLogger(logger)

}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting app")

	// wire stores, feeds, and page handlers
	handler, closer, err := cli.Serve(ctx, appConfig)
	if err != nil {
		logger.Error("error starting app, error initialize web handler", "error", err)
		os.Exit(appMainExitCode)
	}

	logger.Info("http handlers ready")
	// ------------------------------------------------------------------
	// create web server, includes page and api handlers
	// ------------------------------------------------------------------
	serverWeb, err := webserver.New(appConfig)
	if err != nil {
		logger.Error("error starting app, error initialize web server", "error", err)
		os.Exit(appMainExitCode)
	} // .if

	logger.Info("http server ready")

	// ------------------------------------------------------------------
	// Start http custom server
	// ------------------------------------------------------------------
	httpServer := serverWeb.HttpServer(handler)

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("error starting app, error starting http server", "error", err, "port", appConfig.ServerPort)
			os.Exit(appMainExitCode)
		} // .if
	}() // .go

	logger.Info("started http server with page and live feed handlers", "port", appConfig.ServerPort)

	// ------------------------------------------------------------------
	// 	Block for Exit, server above is on goroutine
	// ------------------------------------------------------------------
	<-ctx.Done()

	// ------------------------------------------------------------------
	// close other connections, if needed
	// ------------------------------------------------------------------
	shutdownCtx := context.Background()
	httpServer.Shutdown(shutdownCtx)
	if err := closer(shutdownCtx); err != nil {
		logger.Error("error closing app resources", "error", err)
	}

	logger.Info("closing server by os signal", "port", appConfig.ServerPort)
} // .main

package cli

import (
	"log/slog"
	"os"

	"github.com/roadwatch/roadwatch-web/internal/appconfig"
)

var (
	logger *slog.Logger
)

// AppLogger, this is the custom application logger for uniformity
func AppLogger(appConfig appconfig.AppConfig) *slog.Logger {

	// Configure debug on if needed, otherwise should be off
	opts := &slog.HandlerOptions{
		AddSource: true,
	} // .opts

	if appConfig.LoggerDebugOn {
		opts.Level = slog.LevelDebug

	} // .if

	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))

	appLogger := logger.With(
		slog.Group("app_info",
			slog.String("System", "ROADWATCH"),
			slog.String("Product", "DEFECT REPORTING"),
			slog.String("App", "WEB SERVER"),
			slog.String("Env", appConfig.Environment),
		)) // .appLogger

	return appLogger
} // .AppLogger

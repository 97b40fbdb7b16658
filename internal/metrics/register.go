package metrics

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

func RegisterMetrics(m ...prometheus.Collector) {
	for _, c := range m {
		if err := prometheus.Register(c); err != nil {
			are := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				continue
			}
			slog.Warn("failed to register metric", "error", err)
		}
	}
}

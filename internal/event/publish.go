package event

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/roadwatch/roadwatch-web/internal/health"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

type Publisher[T Identifiable] interface {
	health.Checkable
	io.Closer
	Publish(ctx context.Context, event T) error
}

type Publishers[T Identifiable] []Publisher[T]

func (p Publishers[T]) Publish(ctx context.Context, event T) {
	for _, pub := range p {
		if err := pub.Publish(ctx, event); err != nil {
			logger.Error("failed to publish event", "event", event.Identifier(), "error", err)
		}
	}
}

func (p Publishers[T]) Close() error {
	var lastErr error
	for _, pub := range p {
		if err := pub.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

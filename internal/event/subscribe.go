package event

import (
	"context"
	"io"

	"github.com/roadwatch/roadwatch-web/internal/health"
)

type Subscribable[T Identifiable] interface {
	health.Checkable
	io.Closer
	Listen(context.Context, func(context.Context, T) error) error
}

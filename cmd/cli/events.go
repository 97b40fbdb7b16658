package cli

import (
	"context"

	"github.com/roadwatch/roadwatch-web/internal/appconfig"
	"github.com/roadwatch/roadwatch-web/internal/event"
)

// NewEventPublisher fans events out to the in-memory bus plus the local file
// journal when one is configured.
func NewEventPublisher[T event.Identifiable](ctx context.Context, appConfig appconfig.AppConfig, defaultBus event.Publisher[T]) (event.Publishers[T], error) {
	p := event.Publishers[T]{defaultBus}

	if appConfig.LocalEventsFolder != "" {
		p = append(p, &event.FilePublisher[T]{
			Dir: appConfig.LocalEventsFolder,
		})
	}

	return p, nil
}

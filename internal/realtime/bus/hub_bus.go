package bus

import (
	"context"

	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
)

type broadcaster interface {
	Broadcast(msg realtime.Message)
}

// hubBus delivers messages straight to the in-process hub. Used when no
// REDIS_ADDR is configured and the deployment is a single instance.
type hubBus struct {
	log *logger.Logger
	hub broadcaster
}

func NewHubBus(log *logger.Logger, hub broadcaster) Bus {
	return &hubBus{
		log: log.With("service", "HubCollabBus"),
		hub: hub,
	}
}

func (b *hubBus) Publish(_ context.Context, msg realtime.Message) error {
	if msg.Topic == "" {
		return nil
	}
	b.hub.Broadcast(msg)
	return nil
}

func (b *hubBus) StartForwarder(context.Context, func(m realtime.Message)) error {
	// Publish already hands messages to the hub.
	return nil
}

func (b *hubBus) Close() error { return nil }

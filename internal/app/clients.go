package app

import (
	"os"
	"strings"

	redisclient "github.com/climatehub/collab-backend/internal/clients/redis"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime/bus"
	"github.com/climatehub/collab-backend/internal/sse"
)

type Clients struct {
	State redisclient.StateStore
	Bus   bus.Bus
}

// wireClients prefers redis when REDIS_ADDR is set and falls back to
// the in-process store and hub bus for single-instance deployments.
func wireClients(log *logger.Logger, hub *sse.Hub) Clients {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	if addr != "" {
		state, err := redisclient.NewRedisStore(log)
		if err != nil {
			log.Warn("redis state store init failed, using memory store", "error", err)
			state = redisclient.NewMemoryStore()
		}
		b, err := bus.NewRedisBus(log)
		if err != nil {
			log.Warn("redis bus init failed, using in-process bus", "error", err)
			b = bus.NewHubBus(log, hub)
		}
		return Clients{State: state, Bus: b}
	}

	log.Info("REDIS_ADDR not set; using in-process state store and bus")
	return Clients{
		State: redisclient.NewMemoryStore(),
		Bus:   bus.NewHubBus(log, hub),
	}
}

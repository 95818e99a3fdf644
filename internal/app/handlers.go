package app

import (
	httpH "github.com/climatehub/collab-backend/internal/http/handlers"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/sse"
)

type Handlers struct {
	Collab   *httpH.CollabHandler
	Realtime *httpH.RealtimeHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *sse.Hub) Handlers {
	return Handlers{
		Collab:   httpH.NewCollabHandler(log, serviceset.Sessions, serviceset.Participants, serviceset.Actions, serviceset.Dispatcher),
		Realtime: httpH.NewRealtimeHandler(log, hub),
		Health:   httpH.NewHealthHandler(log),
	}
}

package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/climatehub/collab-backend/internal/http"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, handlerset Handlers, mw Middleware) *gin.Engine {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:             log,
		AuthMiddleware:  mw.Auth,
		CollabHandler:   handlerset.Collab,
		RealtimeHandler: handlerset.Realtime,
		HealthHandler:   handlerset.Health,
	})
}

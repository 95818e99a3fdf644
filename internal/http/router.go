package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/climatehub/collab-backend/internal/http/handlers"
	httpMW "github.com/climatehub/collab-backend/internal/http/middleware"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	CollabHandler   *httpH.CollabHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/collab/stream", cfg.RealtimeHandler.Stream)
			protected.POST("/collab/subscribe", cfg.RealtimeHandler.Subscribe)
			protected.POST("/collab/unsubscribe", cfg.RealtimeHandler.Unsubscribe)
		}

		// Collaboration sessions
		if cfg.CollabHandler != nil {
			protected.POST("/collab/sessions", cfg.CollabHandler.CreateSession)
			protected.GET("/collab/sessions", cfg.CollabHandler.ListSessions)
			protected.GET("/collab/sessions/mine", cfg.CollabHandler.ListMySessions)
			protected.GET("/collab/sessions/:id", cfg.CollabHandler.GetSession)
			protected.POST("/collab/sessions/:id/join", cfg.CollabHandler.JoinSession)
			protected.POST("/collab/sessions/:id/leave", cfg.CollabHandler.LeaveSession)
			protected.POST("/collab/sessions/:id/close", cfg.CollabHandler.CloseSession)
			protected.PATCH("/collab/sessions/:id/settings", cfg.CollabHandler.UpdateSettings)
			protected.GET("/collab/sessions/:id/history", cfg.CollabHandler.History)
			protected.POST("/collab/sessions/:id/events", cfg.CollabHandler.SubmitEvent)
		}
	}

	return r
}

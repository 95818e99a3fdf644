package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/climatehub/collab-backend/internal/http/response"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type HealthHandler struct {
	log *logger.Logger
}

func NewHealthHandler(log *logger.Logger) *HealthHandler {
	return &HealthHandler{log: log.With("handler", "HealthHandler")}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok"})
}

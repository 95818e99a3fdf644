package app

import (
	httpMW "github.com/climatehub/collab-backend/internal/http/middleware"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

package app

import (
	"time"

	"github.com/climatehub/collab-backend/internal/platform/envutil"
)

type Config struct {
	Port              string
	JWTSecretKey      string
	DefaultCapacity   int
	EphemeralTTL      time.Duration
	ActionRetention   time.Duration
	RetentionInterval time.Duration
	RetentionEnabled  bool
	LogMode           string
}

func LoadConfig() Config {
	return Config{
		Port:              envutil.Str("PORT", "8080"),
		JWTSecretKey:      envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		DefaultCapacity:   envutil.Int("COLLAB_DEFAULT_CAPACITY", 10),
		EphemeralTTL:      envutil.Dur("COLLAB_EPHEMERAL_TTL", 30*time.Minute),
		ActionRetention:   envutil.Dur("COLLAB_ACTION_RETENTION", 30*24*time.Hour),
		RetentionInterval: envutil.Dur("COLLAB_RETENTION_INTERVAL", time.Hour),
		RetentionEnabled:  envutil.Bool("COLLAB_RETENTION_ENABLED", true),
		LogMode:           envutil.Str("LOG_MODE", "development"),
	}
}

package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/platform/envutil"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.Str("POSTGRES_HOST", "localhost")
	port := envutil.Str("POSTGRES_PORT", "5432")
	user := envutil.Str("POSTGRES_USER", "postgres")
	password := envutil.Str("POSTGRES_PASSWORD", "")
	name := envutil.Str("POSTGRES_NAME", "collab")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&types.CollabSession{},
		&types.CollabParticipant{},
		&types.UserAction{},
	); err != nil {
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	if err := s.db.Exec(`
		ALTER TABLE "collab_participant"
		ADD CONSTRAINT "fk_collab_participant_session_ref"
		FOREIGN KEY ("session_ref")
		REFERENCES "collab_session"("id")
		ON DELETE CASCADE
	`).Error; err != nil && !isDuplicateConstraint(err) {
		return fmt.Errorf("add fk_collab_participant_session_ref: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "user_action"
		ADD CONSTRAINT "fk_user_action_session_ref"
		FOREIGN KEY ("session_ref")
		REFERENCES "collab_session"("id")
		ON DELETE CASCADE
	`).Error; err != nil && !isDuplicateConstraint(err) {
		return fmt.Errorf("add fk_user_action_session_ref: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func isDuplicateConstraint(err error) bool {
	if err == nil {
		return false
	}
	// 42710: duplicate_object, raised when the constraint already exists.
	return strings.Contains(err.Error(), "42710") || strings.Contains(err.Error(), "already exists")
}

package app

import (
	"gorm.io/gorm"

	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/services"
)

type Services struct {
	Sessions     services.SessionService
	Participants services.ParticipantService
	Actions      services.ActionService
	Enricher     services.Enricher
	Dispatcher   services.DispatcherService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	sessions := services.NewSessionService(db, log, reposet.Sessions, reposet.Participants, clients.State, cfg.DefaultCapacity, cfg.EphemeralTTL)
	participants := services.NewParticipantService(db, log, sessions, reposet.Participants, clients.State)
	actions := services.NewActionService(db, log, sessions, reposet.Actions)
	enricher := services.NewPersonaEnricher(log)
	dispatcher := services.NewDispatcherService(db, log, sessions, actions, enricher, clients.State, clients.Bus, cfg.EphemeralTTL)

	return Services{
		Sessions:     sessions,
		Participants: participants,
		Actions:      actions,
		Enricher:     enricher,
		Dispatcher:   dispatcher,
	}
}

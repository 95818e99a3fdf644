package app

import (
	"gorm.io/gorm"

	repos "github.com/climatehub/collab-backend/internal/data/repos/collab"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type Repos struct {
	Sessions     repos.SessionRepo
	Participants repos.ParticipantRepo
	Actions      repos.ActionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Sessions:     repos.NewSessionRepo(db, log),
		Participants: repos.NewParticipantRepo(db, log),
		Actions:      repos.NewActionRepo(db, log),
	}
}

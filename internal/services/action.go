package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	repos "github.com/climatehub/collab-backend/internal/data/repos/collab"
	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/apierr"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

// DefaultHistoryLimit applies when a history request does not name one.
const DefaultHistoryLimit = 50

type RecordActionInput struct {
	SessionRef uuid.UUID
	UserID     uuid.UUID
	UserName   string
	Kind       string
	PersonaTag string
	Payload    []byte
	Broadcast  bool
	Timestamp  time.Time
}

type ActionService interface {
	Record(dbc dbctx.Context, in RecordActionInput) (*types.UserAction, error)
	History(dbc dbctx.Context, sessionID string, limit int) ([]*types.UserAction, error)
	PruneBefore(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type actionService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions SessionService
	actions  repos.ActionRepo
}

func NewActionService(db *gorm.DB, baseLog *logger.Logger, sessions SessionService, actions repos.ActionRepo) ActionService {
	return &actionService{
		db:       db,
		log:      baseLog.With("service", "ActionService"),
		sessions: sessions,
		actions:  actions,
	}
}

func (s *actionService) Record(dbc dbctx.Context, in RecordActionInput) (*types.UserAction, error) {
	if in.SessionRef == uuid.Nil {
		return nil, apierr.Validation("session ref required")
	}
	if in.UserID == uuid.Nil {
		return nil, apierr.Validation("user id required")
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	action := &types.UserAction{
		SessionRef: in.SessionRef,
		UserID:     in.UserID,
		UserName:   in.UserName,
		Kind:       collab.ParseActionType(in.Kind),
		PersonaTag: in.PersonaTag,
		Payload:    datatypes.JSON(in.Payload),
		Broadcast:  in.Broadcast,
		Timestamp:  ts,
	}
	if err := s.actions.Append(dbc, action); err != nil {
		return nil, apierr.Transient(err)
	}

	if err := s.sessions.TouchActivity(dbc, in.SessionRef); err != nil {
		s.log.Warn("activity touch failed after action", "session_ref", in.SessionRef, "error", err)
	}
	return action, nil
}

// History works for closed sessions too; the durable log outlives the
// session itself.
func (s *actionService) History(dbc dbctx.Context, sessionID string, limit int) ([]*types.UserAction, error) {
	if limit <= 0 {
		return nil, apierr.Validation("limit must be positive")
	}
	session, err := s.sessions.GetAnyStatus(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.actions.ListRecent(dbc, session.ID, limit)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	return rows, nil
}

func (s *actionService) PruneBefore(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	n, err := s.actions.DeleteOlderThan(dbc, cutoff)
	if err != nil {
		return 0, apierr.Transient(err)
	}
	if n > 0 {
		s.log.Info("pruned action history", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}

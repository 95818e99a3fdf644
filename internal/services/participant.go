package services

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/climatehub/collab-backend/internal/clients/redis"
	repos "github.com/climatehub/collab-backend/internal/data/repos/collab"
	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/apierr"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type JoinInput struct {
	UserName   string `json:"userName"`
	PersonaTag string `json:"personaTag"`
}

type JoinResult struct {
	ParticipantID  uuid.UUID              `json:"participantId"`
	SessionID      string                 `json:"sessionId"`
	Role           collab.ParticipantRole `json:"role"`
	Color          string                 `json:"color"`
	CurrentCount   int64                  `json:"currentCount"`
	Rejoined       bool                   `json:"rejoined"`
	ViewSnapshot   datatypes.JSON         `json:"viewSnapshot,omitempty"`
	FilterSnapshot datatypes.JSON         `json:"filterSnapshot,omitempty"`
}

type ParticipantService interface {
	Join(dbc dbctx.Context, sessionID string, userID uuid.UUID, in JoinInput) (*JoinResult, error)
	Leave(dbc dbctx.Context, sessionID string, userID uuid.UUID) error
	ListActive(dbc dbctx.Context, sessionID string) ([]*types.CollabParticipant, error)
	CountActive(dbc dbctx.Context, sessionRef uuid.UUID) (int64, error)
}

type participantService struct {
	db           *gorm.DB
	log          *logger.Logger
	sessions     SessionService
	participants repos.ParticipantRepo
	state        redisclient.StateStore

	// joinMu serializes the capacity check and insert per session so
	// concurrent joins cannot both pass the headcount check.
	joinMuMu sync.Mutex
	joinMus  map[string]*sync.Mutex
}

func NewParticipantService(db *gorm.DB, baseLog *logger.Logger, sessions SessionService, participants repos.ParticipantRepo, state redisclient.StateStore) ParticipantService {
	return &participantService{
		db:           db,
		log:          baseLog.With("service", "ParticipantService"),
		sessions:     sessions,
		participants: participants,
		state:        state,
		joinMus:      make(map[string]*sync.Mutex),
	}
}

func (s *participantService) sessionMu(sessionID string) *sync.Mutex {
	s.joinMuMu.Lock()
	defer s.joinMuMu.Unlock()
	mu, ok := s.joinMus[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		s.joinMus[sessionID] = mu
	}
	return mu
}

func (s *participantService) runInTx(dbc dbctx.Context, run func(dbc dbctx.Context) error) error {
	if s.db == nil || dbc.Tx != nil {
		return run(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

func (s *participantService) Join(dbc dbctx.Context, sessionID string, userID uuid.UUID, in JoinInput) (*JoinResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation("user id required")
	}

	mu := s.sessionMu(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessions.GetActive(dbc, sessionID)
	if err != nil {
		return nil, err
	}

	var result *JoinResult
	err = s.runInTx(dbc, func(dbc dbctx.Context) error {
		existing, err := s.participants.GetBySessionAndUser(dbc, session.ID, userID)
		if err != nil {
			return apierr.Transient(err)
		}

		now := time.Now().UTC()

		if existing != nil {
			// Rejoin keeps the original role and color and bypasses the
			// capacity check.
			if existing.Status != collab.ParticipantStatusActive {
				if err := s.participants.UpdateFields(dbc, existing.ID, map[string]any{
					"status":         collab.ParticipantStatusActive,
					"last_active_at": now,
					"left_at":        nil,
				}); err != nil {
					return apierr.Transient(err)
				}
			} else {
				if err := s.participants.UpdateFields(dbc, existing.ID, map[string]any{
					"last_active_at": now,
				}); err != nil {
					return apierr.Transient(err)
				}
			}
			count, err := s.participants.CountActive(dbc, session.ID)
			if err != nil {
				return apierr.Transient(err)
			}
			result = &JoinResult{
				ParticipantID:  existing.ID,
				SessionID:      session.SessionID,
				Role:           existing.Role,
				Color:          existing.Color,
				CurrentCount:   count,
				Rejoined:       true,
				ViewSnapshot:   session.ViewSnapshot,
				FilterSnapshot: session.FilterSnapshot,
			}
			return nil
		}

		count, err := s.participants.CountActive(dbc, session.ID)
		if err != nil {
			return apierr.Transient(err)
		}
		if count >= int64(session.MaxParticipants) {
			return apierr.CapacityExceeded("session %s is full (%d/%d)", sessionID, count, session.MaxParticipants)
		}

		participant := &types.CollabParticipant{
			ID:           uuid.New(),
			SessionRef:   session.ID,
			UserID:       userID,
			UserName:     strings.TrimSpace(in.UserName),
			PersonaTag:   strings.TrimSpace(in.PersonaTag),
			Role:         collab.RoleParticipant,
			Status:       collab.ParticipantStatusActive,
			Color:        collab.UserColor(int(count)),
			JoinedAt:     now,
			LastActiveAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.participants.Create(dbc, participant); err != nil {
			return apierr.Transient(err)
		}

		result = &JoinResult{
			ParticipantID:  participant.ID,
			SessionID:      session.SessionID,
			Role:           participant.Role,
			Color:          participant.Color,
			CurrentCount:   count + 1,
			ViewSnapshot:   session.ViewSnapshot,
			FilterSnapshot: session.FilterSnapshot,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.TouchActivity(dbc, session.ID); err != nil {
		s.log.Warn("activity touch failed after join", "session_id", sessionID, "error", err)
	}
	return result, nil
}

func (s *participantService) Leave(dbc dbctx.Context, sessionID string, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.Validation("user id required")
	}
	session, err := s.sessions.GetAnyStatus(dbc, sessionID)
	if err != nil {
		return err
	}
	participant, err := s.participants.GetBySessionAndUser(dbc, session.ID, userID)
	if err != nil {
		return apierr.Transient(err)
	}
	if participant == nil {
		return apierr.NotFound("user %s is not a participant of session %s", userID, sessionID)
	}

	now := time.Now().UTC()
	if err := s.participants.UpdateFields(dbc, participant.ID, map[string]any{
		"status":  collab.ParticipantStatusDisconnected,
		"left_at": now,
	}); err != nil {
		return apierr.Transient(err)
	}

	// Ephemeral cursor and presence state follows the membership out.
	if s.state != nil {
		uid := userID.String()
		if err := s.state.DeleteEntry(dbc.Ctx, redisclient.EntryCursor, sessionID, uid); err != nil {
			s.log.Warn("cursor cleanup failed on leave", "session_id", sessionID, "error", err)
		}
		if err := s.state.DeleteEntry(dbc.Ctx, redisclient.EntryPresence, sessionID, uid); err != nil {
			s.log.Warn("presence cleanup failed on leave", "session_id", sessionID, "error", err)
		}
	}

	if err := s.sessions.TouchActivity(dbc, session.ID); err != nil {
		s.log.Warn("activity touch failed after leave", "session_id", sessionID, "error", err)
	}
	return nil
}

func (s *participantService) ListActive(dbc dbctx.Context, sessionID string) ([]*types.CollabParticipant, error) {
	session, err := s.sessions.GetAnyStatus(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.participants.ListActive(dbc, session.ID)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	return rows, nil
}

func (s *participantService) CountActive(dbc dbctx.Context, sessionRef uuid.UUID) (int64, error) {
	count, err := s.participants.CountActive(dbc, sessionRef)
	if err != nil {
		return 0, apierr.Transient(err)
	}
	return count, nil
}

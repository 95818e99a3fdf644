package services

import (
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
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

type CreateSessionInput struct {
	Name            string `json:"name"`
	MaxParticipants int    `json:"maxParticipants"`
	IsPublic        bool   `json:"isPublic"`
}

type UpdateSettingsInput struct {
	Name            *string `json:"name,omitempty"`
	MaxParticipants *int    `json:"maxParticipants,omitempty"`
	IsPublic        *bool   `json:"isPublic,omitempty"`
}

type SessionDetails struct {
	Session      *types.CollabSession      `json:"session"`
	Participants []*types.CollabParticipant `json:"participants"`
}

type SessionService interface {
	Create(dbc dbctx.Context, creatorID uuid.UUID, creatorName, personaTag string, in CreateSessionInput) (*types.CollabSession, error)
	GetActive(dbc dbctx.Context, sessionID string) (*types.CollabSession, error)
	GetAnyStatus(dbc dbctx.Context, sessionID string) (*types.CollabSession, error)
	GetDetails(dbc dbctx.Context, sessionID string) (*SessionDetails, error)
	ListActive(dbc dbctx.Context, isPublic *bool) ([]*types.CollabSession, error)
	ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CollabSession, error)
	UpdateSettings(dbc dbctx.Context, sessionID string, actorID uuid.UUID, in UpdateSettingsInput) (*types.CollabSession, error)
	Close(dbc dbctx.Context, sessionID string, actorID uuid.UUID) error
	TouchActivity(dbc dbctx.Context, sessionRef uuid.UUID) error
	UpdateViewSnapshot(dbc dbctx.Context, sessionRef uuid.UUID, snapshot json.RawMessage) error
	UpdateFilterSnapshot(dbc dbctx.Context, sessionRef uuid.UUID, snapshot json.RawMessage) error
}

type sessionService struct {
	db              *gorm.DB
	log             *logger.Logger
	sessions        repos.SessionRepo
	participants    repos.ParticipantRepo
	state           redisclient.StateStore
	defaultCapacity int
	cacheTTL        time.Duration
}

func NewSessionService(db *gorm.DB, baseLog *logger.Logger, sessions repos.SessionRepo, participants repos.ParticipantRepo, state redisclient.StateStore, defaultCapacity int, cacheTTL time.Duration) SessionService {
	if defaultCapacity <= 0 {
		defaultCapacity = collab.DefaultMaxParticipants
	}
	if cacheTTL <= 0 {
		cacheTTL = redisclient.DefaultTTL
	}
	return &sessionService{
		db:              db,
		log:             baseLog.With("service", "SessionService"),
		sessions:        sessions,
		participants:    participants,
		state:           state,
		defaultCapacity: defaultCapacity,
		cacheTTL:        cacheTTL,
	}
}

func (s *sessionService) runInTx(dbc dbctx.Context, run func(dbc dbctx.Context) error) error {
	if s.db == nil || dbc.Tx != nil {
		return run(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

func newPublicSessionID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func (s *sessionService) Create(dbc dbctx.Context, creatorID uuid.UUID, creatorName, personaTag string, in CreateSessionInput) (*types.CollabSession, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.Validation("session name required")
	}
	if creatorID == uuid.Nil {
		return nil, apierr.Validation("creator user id required")
	}
	capacity := in.MaxParticipants
	if capacity == 0 {
		capacity = s.defaultCapacity
	}
	if capacity < 1 {
		return nil, apierr.Validation("maxParticipants must be at least 1")
	}

	now := time.Now().UTC()
	session := &types.CollabSession{
		ID:                uuid.New(),
		SessionID:         newPublicSessionID(),
		Name:              name,
		CreatorUserID:     creatorID,
		CreatorName:       strings.TrimSpace(creatorName),
		CreatorPersonaTag: strings.TrimSpace(personaTag),
		Status:            collab.SessionStatusActive,
		MaxParticipants:   capacity,
		IsPublic:          in.IsPublic,
		LastActivityAt:    now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.runInTx(dbc, func(dbc dbctx.Context) error {
		if err := s.sessions.Create(dbc, session); err != nil {
			return apierr.Transient(err)
		}
		owner := &types.CollabParticipant{
			ID:           uuid.New(),
			SessionRef:   session.ID,
			UserID:       creatorID,
			UserName:     session.CreatorName,
			PersonaTag:   session.CreatorPersonaTag,
			Role:         collab.RoleOwner,
			Status:       collab.ParticipantStatusActive,
			Color:        collab.UserColor(0),
			JoinedAt:     now,
			LastActiveAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.participants.Create(dbc, owner); err != nil {
			return apierr.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheSession(dbc, session)
	return session, nil
}

// cacheSession is best effort; a store failure never fails the caller.
func (s *sessionService) cacheSession(dbc dbctx.Context, session *types.CollabSession) {
	if s.state == nil || session == nil {
		return
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := s.state.CacheSession(dbc.Ctx, session.SessionID, raw, s.cacheTTL); err != nil {
		s.log.Warn("session cache write failed", "session_id", session.SessionID, "error", err)
	}
}

func (s *sessionService) GetActive(dbc dbctx.Context, sessionID string) (*types.CollabSession, error) {
	session, err := s.GetAnyStatus(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == collab.SessionStatusClosed {
		return nil, apierr.NotFound("session %s not found", sessionID)
	}
	return session, nil
}

func (s *sessionService) GetAnyStatus(dbc dbctx.Context, sessionID string) (*types.CollabSession, error) {
	session, err := s.sessions.GetByPublicID(dbc, sessionID)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	if session == nil {
		return nil, apierr.NotFound("session %s not found", sessionID)
	}
	return session, nil
}

func (s *sessionService) GetDetails(dbc dbctx.Context, sessionID string) (*SessionDetails, error) {
	session, err := s.GetAnyStatus(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListActive(dbc, session.ID)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	return &SessionDetails{Session: session, Participants: participants}, nil
}

func (s *sessionService) ListActive(dbc dbctx.Context, isPublic *bool) ([]*types.CollabSession, error) {
	rows, err := s.sessions.ListByStatus(dbc, collab.SessionStatusActive, isPublic)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	return rows, nil
}

func (s *sessionService) ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CollabSession, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation("user id required")
	}
	memberships, err := s.participants.ListByUser(dbc, userID)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	refs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		refs = append(refs, m.SessionRef)
	}
	rows, err := s.sessions.ListByRefs(dbc, refs)
	if err != nil {
		return nil, apierr.Transient(err)
	}
	out := make([]*types.CollabSession, 0, len(rows))
	for _, r := range rows {
		if r.Status != collab.SessionStatusClosed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *sessionService) UpdateSettings(dbc dbctx.Context, sessionID string, actorID uuid.UUID, in UpdateSettingsInput) (*types.CollabSession, error) {
	session, err := s.GetActive(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatorUserID != actorID {
		return nil, apierr.Forbidden("only the session owner may change settings")
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.Validation("session name required")
		}
		updates["name"] = name
		session.Name = name
	}
	if in.MaxParticipants != nil {
		if *in.MaxParticipants < 1 {
			return nil, apierr.Validation("maxParticipants must be at least 1")
		}
		// Lowering capacity below the current headcount only blocks new
		// joins; existing participants are never evicted.
		updates["max_participants"] = *in.MaxParticipants
		session.MaxParticipants = *in.MaxParticipants
	}
	if in.IsPublic != nil {
		updates["is_public"] = *in.IsPublic
		session.IsPublic = *in.IsPublic
	}
	if len(updates) == 0 {
		return session, nil
	}

	if err := s.sessions.UpdateFields(dbc, session.ID, updates); err != nil {
		return nil, apierr.Transient(err)
	}
	session.UpdatedAt = time.Now().UTC()
	s.cacheSession(dbc, session)
	return session, nil
}

func (s *sessionService) Close(dbc dbctx.Context, sessionID string, actorID uuid.UUID) error {
	session, err := s.GetAnyStatus(dbc, sessionID)
	if err != nil {
		return err
	}
	if session.CreatorUserID != actorID {
		return apierr.Forbidden("only the session owner may close the session")
	}
	if session.Status == collab.SessionStatusClosed {
		// Closing twice is a no-op.
		return nil
	}
	if err := s.sessions.UpdateFields(dbc, session.ID, map[string]any{
		"status": collab.SessionStatusClosed,
	}); err != nil {
		return apierr.Transient(err)
	}
	if s.state != nil {
		if err := s.state.EvictSession(dbc.Ctx, sessionID); err != nil {
			s.log.Warn("session cache evict failed", "session_id", sessionID, "error", err)
		}
	}
	return nil
}

func (s *sessionService) TouchActivity(dbc dbctx.Context, sessionRef uuid.UUID) error {
	if err := s.sessions.UpdateFields(dbc, sessionRef, map[string]any{
		"last_activity_at": time.Now().UTC(),
	}); err != nil {
		return apierr.Transient(err)
	}
	return nil
}

func (s *sessionService) UpdateViewSnapshot(dbc dbctx.Context, sessionRef uuid.UUID, snapshot json.RawMessage) error {
	if len(snapshot) == 0 {
		return nil
	}
	if err := s.sessions.UpdateFields(dbc, sessionRef, map[string]any{
		"view_snapshot":    datatypes.JSON(snapshot),
		"last_activity_at": time.Now().UTC(),
	}); err != nil {
		return apierr.Transient(err)
	}
	return nil
}

func (s *sessionService) UpdateFilterSnapshot(dbc dbctx.Context, sessionRef uuid.UUID, snapshot json.RawMessage) error {
	if len(snapshot) == 0 {
		return nil
	}
	if err := s.sessions.UpdateFields(dbc, sessionRef, map[string]any{
		"filter_snapshot":  datatypes.JSON(snapshot),
		"last_activity_at": time.Now().UTC(),
	}); err != nil {
		return apierr.Transient(err)
	}
	return nil
}

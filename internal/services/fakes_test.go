package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	redisclient "github.com/climatehub/collab-backend/internal/clients/redis"
	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
)

func testLogger() *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		panic(err)
	}
	return log
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*types.CollabSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*types.CollabSession)}
}

func (r *fakeSessionRepo) Create(_ dbctx.Context, session *types.CollabSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByPublicID(_ dbctx.Context, sessionID string) (*types.CollabSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.SessionID == sessionID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) GetByRef(_ dbctx.Context, ref uuid.UUID) (*types.CollabSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[ref]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) ListByStatus(_ dbctx.Context, status collab.SessionStatus, isPublic *bool) ([]*types.CollabSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CollabSession
	for _, s := range r.sessions {
		if s.Status != status {
			continue
		}
		if isPublic != nil && s.IsPublic != *isPublic {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeSessionRepo) ListByRefs(_ dbctx.Context, refs []uuid.UUID) ([]*types.CollabSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CollabSession
	for _, ref := range refs {
		if s, ok := r.sessions[ref]; ok {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) UpdateFields(_ dbctx.Context, ref uuid.UUID, updates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ref]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "name":
			s.Name = v.(string)
		case "status":
			s.Status = v.(collab.SessionStatus)
		case "max_participants":
			s.MaxParticipants = v.(int)
		case "is_public":
			s.IsPublic = v.(bool)
		case "last_activity_at":
			s.LastActivityAt = v.(time.Time)
		case "view_snapshot":
			s.ViewSnapshot = v.(datatypes.JSON)
		case "filter_snapshot":
			s.FilterSnapshot = v.(datatypes.JSON)
		case "updated_at":
			s.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[uuid.UUID]*types.CollabParticipant
	createDelay  time.Duration
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[uuid.UUID]*types.CollabParticipant)}
}

func (r *fakeParticipantRepo) Create(_ dbctx.Context, p *types.CollabParticipant) error {
	if r.createDelay > 0 {
		time.Sleep(r.createDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.participants[p.ID] = &cp
	return nil
}

func (r *fakeParticipantRepo) GetBySessionAndUser(_ dbctx.Context, sessionRef, userID uuid.UUID) (*types.CollabParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionRef == sessionRef && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeParticipantRepo) CountActive(_ dbctx.Context, sessionRef uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.participants {
		if p.SessionRef == sessionRef && p.Status == collab.ParticipantStatusActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeParticipantRepo) ListActive(_ dbctx.Context, sessionRef uuid.UUID) ([]*types.CollabParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CollabParticipant
	for _, p := range r.participants {
		if p.SessionRef == sessionRef && p.Status == collab.ParticipantStatusActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *fakeParticipantRepo) ListByUser(_ dbctx.Context, userID uuid.UUID) ([]*types.CollabParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.CollabParticipant
	for _, p := range r.participants {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			p.Status = v.(collab.ParticipantStatus)
		case "last_active_at":
			p.LastActiveAt = v.(time.Time)
		case "left_at":
			if v == nil {
				p.LeftAt = nil
			} else {
				t := v.(time.Time)
				p.LeftAt = &t
			}
		case "updated_at":
			p.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

type fakeActionRepo struct {
	mu          sync.Mutex
	actions     []*types.UserAction
	nextID      int64
	failAppend  bool
	appendDelay time.Duration
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{}
}

func (r *fakeActionRepo) Append(_ dbctx.Context, a *types.UserAction) error {
	if r.appendDelay > 0 {
		time.Sleep(r.appendDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppend {
		return errors.New("durable store down")
	}
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.actions = append(r.actions, &cp)
	return nil
}

func (r *fakeActionRepo) ListRecent(_ dbctx.Context, sessionRef uuid.UUID, limit int) ([]*types.UserAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.UserAction
	for _, a := range r.actions {
		if a.SessionRef == sessionRef {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeActionRepo) DeleteOlderThan(_ dbctx.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*types.UserAction
	var n int64
	for _, a := range r.actions {
		if a.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.actions = kept
	return n, nil
}

type captureBus struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (b *captureBus) Publish(_ context.Context, msg realtime.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

func (b *captureBus) StartForwarder(context.Context, func(m realtime.Message)) error { return nil }

func (b *captureBus) Close() error { return nil }

func (b *captureBus) all() []realtime.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// failingStateStore simulates an unavailable ephemeral store.
type failingStateStore struct{}

func (failingStateStore) SetEntry(context.Context, redisclient.EntryKind, string, string, []byte, time.Duration) error {
	return errors.New("state store down")
}

func (failingStateStore) GetEntry(context.Context, redisclient.EntryKind, string, string) ([]byte, bool, error) {
	return nil, false, errors.New("state store down")
}

func (failingStateStore) DeleteEntry(context.Context, redisclient.EntryKind, string, string) error {
	return errors.New("state store down")
}

func (failingStateStore) CacheSession(context.Context, string, []byte, time.Duration) error {
	return errors.New("state store down")
}

func (failingStateStore) GetCachedSession(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("state store down")
}

func (failingStateStore) EvictSession(context.Context, string) error {
	return errors.New("state store down")
}

func (failingStateStore) Close() error { return nil }

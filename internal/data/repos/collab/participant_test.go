package collab

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/climatehub/collab-backend/internal/data/repos/testutil"
	types "github.com/climatehub/collab-backend/internal/domain"
	domain "github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
)

func newTestParticipant(sessionRef uuid.UUID, name string, joinedAt time.Time) *types.CollabParticipant {
	return &types.CollabParticipant{
		ID:           uuid.New(),
		SessionRef:   sessionRef,
		UserID:       uuid.New(),
		UserName:     name,
		Role:         domain.RoleParticipant,
		Status:       domain.ParticipantStatusActive,
		Color:        domain.UserColor(0),
		JoinedAt:     joinedAt,
		LastActiveAt: joinedAt,
		CreatedAt:    joinedAt,
		UpdatedAt:    joinedAt,
	}
}

func TestParticipantRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	sessions := NewSessionRepo(db, testutil.Logger(t))
	repo := NewParticipantRepo(db, testutil.Logger(t))

	session := newTestSession("Coastal Flood Model", "01TESTSESSIOND", domain.SessionStatusActive, true)
	if err := sessions.Create(dbc, session); err != nil {
		t.Fatalf("session Create: %v", err)
	}

	base := time.Now().UTC().Add(-time.Minute)
	p1 := newTestParticipant(session.ID, "Ana", base)
	p2 := newTestParticipant(session.ID, "Ben", base.Add(10*time.Second))
	p3 := newTestParticipant(session.ID, "Cleo", base.Add(20*time.Second))
	p3.Status = domain.ParticipantStatusDisconnected

	for _, p := range []*types.CollabParticipant{p1, p2, p3} {
		if err := repo.Create(dbc, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if got, err := repo.GetBySessionAndUser(dbc, session.ID, p1.UserID); err != nil || got == nil || got.ID != p1.ID {
		t.Fatalf("GetBySessionAndUser: got=%v err=%v", got, err)
	}
	if got, err := repo.GetBySessionAndUser(dbc, session.ID, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetBySessionAndUser missing: got=%v err=%v", got, err)
	}

	if n, err := repo.CountActive(dbc, session.ID); err != nil || n != 2 {
		t.Fatalf("CountActive: n=%d err=%v", n, err)
	}

	active, err := repo.ListActive(dbc, session.ID)
	if err != nil || len(active) != 2 {
		t.Fatalf("ListActive: len=%d err=%v", len(active), err)
	}
	if active[0].ID != p1.ID || active[1].ID != p2.ID {
		t.Fatalf("ListActive order: got %s then %s", active[0].UserName, active[1].UserName)
	}

	if got, err := repo.ListByUser(dbc, p3.UserID); err != nil || len(got) != 1 {
		t.Fatalf("ListByUser: len=%d err=%v", len(got), err)
	}

	leftAt := time.Now().UTC()
	if err := repo.UpdateFields(dbc, p2.ID, map[string]any{
		"status":  domain.ParticipantStatusDisconnected,
		"left_at": leftAt,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if n, err := repo.CountActive(dbc, session.ID); err != nil || n != 1 {
		t.Fatalf("CountActive after leave: n=%d err=%v", n, err)
	}
}

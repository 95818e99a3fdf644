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

func newTestSession(name, publicID string, status domain.SessionStatus, isPublic bool) *types.CollabSession {
	now := time.Now().UTC()
	return &types.CollabSession{
		ID:              uuid.New(),
		SessionID:       publicID,
		Name:            name,
		CreatorUserID:   uuid.New(),
		CreatorName:     "Tester",
		Status:          status,
		MaxParticipants: 10,
		IsPublic:        isPublic,
		LastActivityAt:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSessionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewSessionRepo(db, testutil.Logger(t))

	s1 := newTestSession("Pacific Heatmap", "01TESTSESSIONA", domain.SessionStatusActive, true)
	s2 := newTestSession("Arctic Review", "01TESTSESSIONB", domain.SessionStatusActive, false)
	s3 := newTestSession("Old Workshop", "01TESTSESSIONC", domain.SessionStatusClosed, true)

	for _, s := range []*types.CollabSession{s1, s2, s3} {
		if err := repo.Create(dbc, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if got, err := repo.GetByPublicID(dbc, s1.SessionID); err != nil || got == nil || got.ID != s1.ID {
		t.Fatalf("GetByPublicID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByPublicID(dbc, "missing"); err != nil || got != nil {
		t.Fatalf("GetByPublicID missing: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByRef(dbc, s2.ID); err != nil || got == nil || got.SessionID != s2.SessionID {
		t.Fatalf("GetByRef: got=%v err=%v", got, err)
	}

	if got, err := repo.ListByStatus(dbc, domain.SessionStatusActive, nil); err != nil || len(got) != 2 {
		t.Fatalf("ListByStatus active: len=%d err=%v", len(got), err)
	}
	public := true
	if got, err := repo.ListByStatus(dbc, domain.SessionStatusActive, &public); err != nil || len(got) != 1 || got[0].ID != s1.ID {
		t.Fatalf("ListByStatus active public: len=%d err=%v", len(got), err)
	}

	if got, err := repo.ListByRefs(dbc, []uuid.UUID{s1.ID, s3.ID}); err != nil || len(got) != 2 {
		t.Fatalf("ListByRefs: len=%d err=%v", len(got), err)
	}

	if err := repo.UpdateFields(dbc, s1.ID, map[string]any{"status": domain.SessionStatusClosed}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, err := repo.GetByRef(dbc, s1.ID); err != nil || got.Status != domain.SessionStatusClosed {
		t.Fatalf("UpdateFields verify: got=%v err=%v", got, err)
	}
}

package collab

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/climatehub/collab-backend/internal/data/repos/testutil"
	types "github.com/climatehub/collab-backend/internal/domain"
	domain "github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
)

func TestActionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	sessions := NewSessionRepo(db, testutil.Logger(t))
	repo := NewActionRepo(db, testutil.Logger(t))

	session := newTestSession("Emissions Walkthrough", "01TESTSESSIONE", domain.SessionStatusActive, true)
	if err := sessions.Create(dbc, session); err != nil {
		t.Fatalf("session Create: %v", err)
	}

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	kinds := []domain.ActionType{domain.ActionZoom, domain.ActionPan, domain.ActionFilterApply, domain.ActionAnnotate}
	for i, kind := range kinds {
		a := &types.UserAction{
			SessionRef: session.ID,
			UserID:     userID,
			UserName:   "Ana",
			Kind:       kind,
			Payload:    datatypes.JSON([]byte(`{"i":` + string(rune('0'+i)) + `}`)),
			Broadcast:  true,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Append(dbc, a); err != nil {
			t.Fatalf("Append %s: %v", kind, err)
		}
	}

	recent, err := repo.ListRecent(dbc, session.ID, 3)
	if err != nil || len(recent) != 3 {
		t.Fatalf("ListRecent: len=%d err=%v", len(recent), err)
	}
	if recent[0].Kind != domain.ActionAnnotate || recent[2].Kind != domain.ActionPan {
		t.Fatalf("ListRecent order: got %s..%s", recent[0].Kind, recent[2].Kind)
	}

	// Equal timestamps break ties by insertion order.
	tieTS := base.Add(2 * time.Hour)
	first := &types.UserAction{SessionRef: session.ID, UserID: userID, Kind: domain.ActionComment, Broadcast: true, Timestamp: tieTS}
	second := &types.UserAction{SessionRef: session.ID, UserID: userID, Kind: domain.ActionHighlight, Broadcast: true, Timestamp: tieTS}
	if err := repo.Append(dbc, first); err != nil {
		t.Fatalf("Append tie first: %v", err)
	}
	if err := repo.Append(dbc, second); err != nil {
		t.Fatalf("Append tie second: %v", err)
	}
	recent, err = repo.ListRecent(dbc, session.ID, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("ListRecent ties: len=%d err=%v", len(recent), err)
	}
	if recent[0].Kind != domain.ActionHighlight || recent[1].Kind != domain.ActionComment {
		t.Fatalf("ListRecent tie order: got %s then %s", recent[0].Kind, recent[1].Kind)
	}

	n, err := repo.DeleteOlderThan(dbc, base.Add(2*time.Minute))
	if err != nil || n != 2 {
		t.Fatalf("DeleteOlderThan: n=%d err=%v", n, err)
	}
}

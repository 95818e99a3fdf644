package collab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type ParticipantRepo interface {
	Create(dbc dbctx.Context, participant *types.CollabParticipant) error
	GetBySessionAndUser(dbc dbctx.Context, sessionRef, userID uuid.UUID) (*types.CollabParticipant, error)
	CountActive(dbc dbctx.Context, sessionRef uuid.UUID) (int64, error)
	ListActive(dbc dbctx.Context, sessionRef uuid.UUID) ([]*types.CollabParticipant, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CollabParticipant, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return &participantRepo{
		db:  db,
		log: baseLog.With("repo", "ParticipantRepo"),
	}
}

func (r *participantRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *participantRepo) Create(dbc dbctx.Context, participant *types.CollabParticipant) error {
	if participant == nil {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(participant).Error
}

func (r *participantRepo) GetBySessionAndUser(dbc dbctx.Context, sessionRef, userID uuid.UUID) (*types.CollabParticipant, error) {
	if sessionRef == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.CollabParticipant
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("session_ref = ? AND user_id = ?", sessionRef, userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *participantRepo) CountActive(dbc dbctx.Context, sessionRef uuid.UUID) (int64, error) {
	if sessionRef == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.CollabParticipant{}).
		Where("session_ref = ? AND status = ?", sessionRef, collab.ParticipantStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *participantRepo) ListActive(dbc dbctx.Context, sessionRef uuid.UUID) ([]*types.CollabParticipant, error) {
	var rows []*types.CollabParticipant
	if sessionRef == uuid.Nil {
		return rows, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("session_ref = ? AND status = ?", sessionRef, collab.ParticipantStatusActive).
		Order("joined_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *participantRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CollabParticipant, error) {
	var rows []*types.CollabParticipant
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *participantRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]any{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.CollabParticipant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

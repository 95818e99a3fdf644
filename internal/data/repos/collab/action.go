package collab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type ActionRepo interface {
	Append(dbc dbctx.Context, action *types.UserAction) error
	ListRecent(dbc dbctx.Context, sessionRef uuid.UUID, limit int) ([]*types.UserAction, error)
	DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type actionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActionRepo(db *gorm.DB, baseLog *logger.Logger) ActionRepo {
	return &actionRepo{
		db:  db,
		log: baseLog.With("repo", "ActionRepo"),
	}
}

func (r *actionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *actionRepo) Append(dbc dbctx.Context, action *types.UserAction) error {
	if action == nil {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(action).Error
}

// ListRecent returns the newest actions first. Timestamp ties resolve by
// insertion order (descending id).
func (r *actionRepo) ListRecent(dbc dbctx.Context, sessionRef uuid.UUID, limit int) ([]*types.UserAction, error) {
	var rows []*types.UserAction
	if sessionRef == uuid.Nil || limit <= 0 {
		return rows, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("session_ref = ?", sessionRef).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *actionRepo) DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Where("timestamp < ?", cutoff).
		Delete(&types.UserAction{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

package collab

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, session *types.CollabSession) error
	GetByPublicID(dbc dbctx.Context, sessionID string) (*types.CollabSession, error)
	GetByRef(dbc dbctx.Context, ref uuid.UUID) (*types.CollabSession, error)
	ListByStatus(dbc dbctx.Context, status collab.SessionStatus, isPublic *bool) ([]*types.CollabSession, error)
	ListByRefs(dbc dbctx.Context, refs []uuid.UUID) ([]*types.CollabSession, error)
	UpdateFields(dbc dbctx.Context, ref uuid.UUID, updates map[string]any) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: baseLog.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *sessionRepo) Create(dbc dbctx.Context, session *types.CollabSession) error {
	if session == nil {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(session).Error
}

func (r *sessionRepo) GetByPublicID(dbc dbctx.Context, sessionID string) (*types.CollabSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}
	var row types.CollabSession
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sessionRepo) GetByRef(dbc dbctx.Context, ref uuid.UUID) (*types.CollabSession, error) {
	if ref == uuid.Nil {
		return nil, nil
	}
	var row types.CollabSession
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id = ?", ref).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sessionRepo) ListByStatus(dbc dbctx.Context, status collab.SessionStatus, isPublic *bool) ([]*types.CollabSession, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).
		Where("status = ?", status)
	if isPublic != nil {
		q = q.Where("is_public = ?", *isPublic)
	}
	var rows []*types.CollabSession
	if err := q.Order("last_activity_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionRepo) ListByRefs(dbc dbctx.Context, refs []uuid.UUID) ([]*types.CollabSession, error) {
	var rows []*types.CollabSession
	if len(refs) == 0 {
		return rows, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", refs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionRepo) UpdateFields(dbc dbctx.Context, ref uuid.UUID, updates map[string]any) error {
	if ref == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]any{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.CollabSession{}).
		Where("id = ?", ref).
		Updates(updates).Error
}

package collab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "ACTIVE"
	SessionStatusInactive SessionStatus = "INACTIVE"
	SessionStatusClosed   SessionStatus = "CLOSED"
)

// CollabSession is a capacity-bounded shared workspace. SessionID is the
// opaque public identifier used in every external reference; ID is the
// storage key and never leaves the service.
type CollabSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"-"`
	SessionID string    `gorm:"column:session_id;type:text;not null;uniqueIndex" json:"session_id"`

	Name              string    `gorm:"column:name;type:text;not null" json:"name"`
	CreatorUserID     uuid.UUID `gorm:"type:uuid;column:creator_user_id;not null;index" json:"creator_user_id"`
	CreatorName       string    `gorm:"column:creator_name;type:text;not null" json:"creator_name"`
	CreatorPersonaTag string    `gorm:"column:creator_persona_tag;type:text" json:"creator_persona_tag,omitempty"`

	Status          SessionStatus `gorm:"column:status;type:text;not null;index" json:"status"`
	MaxParticipants int           `gorm:"column:max_participants;not null" json:"max_participants"`
	IsPublic        bool          `gorm:"column:is_public;not null;index" json:"is_public"`

	// Serialized shared state, replayed to joiners.
	ViewSnapshot   datatypes.JSON `gorm:"column:view_snapshot;type:jsonb" json:"view_snapshot,omitempty"`
	FilterSnapshot datatypes.JSON `gorm:"column:filter_snapshot;type:jsonb" json:"filter_snapshot,omitempty"`

	LastActivityAt time.Time `gorm:"column:last_activity_at;not null;index" json:"last_activity_at"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CollabSession) TableName() string { return "collab_session" }

const DefaultMaxParticipants = 10

package collab

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	RoleOwner       ParticipantRole = "OWNER"
	RoleModerator   ParticipantRole = "MODERATOR"
	RoleParticipant ParticipantRole = "PARTICIPANT"
	RoleViewer      ParticipantRole = "VIEWER"
)

type ParticipantStatus string

const (
	ParticipantStatusActive       ParticipantStatus = "ACTIVE"
	ParticipantStatusIdle         ParticipantStatus = "IDLE"
	ParticipantStatusDisconnected ParticipantStatus = "DISCONNECTED"
)

// CollabParticipant is one user's membership record within one session.
// (session_ref, user_id) is unique: rejoin reuses the row.
type CollabParticipant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	SessionRef uuid.UUID `gorm:"type:uuid;column:session_ref;not null;uniqueIndex:uniq_participant_session_user,priority:1;index" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;column:user_id;not null;uniqueIndex:uniq_participant_session_user,priority:2;index" json:"user_id"`

	UserName   string            `gorm:"column:user_name;type:text;not null" json:"user_name"`
	PersonaTag string            `gorm:"column:persona_tag;type:text" json:"persona_tag,omitempty"`
	Role       ParticipantRole   `gorm:"column:role;type:text;not null" json:"role"`
	Status     ParticipantStatus `gorm:"column:status;type:text;not null;index" json:"status"`

	// Deterministic palette entry assigned by join order.
	Color string `gorm:"column:color;type:text;not null" json:"color"`

	JoinedAt     time.Time  `gorm:"column:joined_at;not null;index" json:"joined_at"`
	LastActiveAt time.Time  `gorm:"column:last_active_at;not null" json:"last_active_at"`
	LeftAt       *time.Time `gorm:"column:left_at" json:"left_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CollabParticipant) TableName() string { return "collab_participant" }

var ColorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E2", "#F8B88B", "#AAB7B8",
}

// UserColor returns the palette entry for the nth joiner.
func UserColor(index int) string {
	if index < 0 {
		index = 0
	}
	return ColorPalette[index%len(ColorPalette)]
}

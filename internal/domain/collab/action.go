package collab

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActionType string

const (
	ActionZoom             ActionType = "zoom"
	ActionPan              ActionType = "pan"
	ActionFilterApply      ActionType = "filter_apply"
	ActionFilterRemove     ActionType = "filter_remove"
	ActionAnnotate         ActionType = "annotate"
	ActionShareView        ActionType = "share_view"
	ActionCursorMove       ActionType = "cursor_move"
	ActionHighlight        ActionType = "highlight"
	ActionComment          ActionType = "comment"
	ActionLayerToggle      ActionType = "layer_toggle"
	ActionMarkerAdd        ActionType = "marker_add"
	ActionMarkerRemove     ActionType = "marker_remove"
	ActionRegionSelect     ActionType = "region_select"
	ActionDataQuery        ActionType = "data_query"
	ActionExportRequest    ActionType = "export_request"
	ActionPermissionChange ActionType = "permission_change"
)

var actionTypes = map[ActionType]struct{}{
	ActionZoom: {}, ActionPan: {}, ActionFilterApply: {}, ActionFilterRemove: {},
	ActionAnnotate: {}, ActionShareView: {}, ActionCursorMove: {}, ActionHighlight: {},
	ActionComment: {}, ActionLayerToggle: {}, ActionMarkerAdd: {}, ActionMarkerRemove: {},
	ActionRegionSelect: {}, ActionDataQuery: {}, ActionExportRequest: {}, ActionPermissionChange: {},
}

// ParseActionType coerces unrecognized kinds to share_view instead of
// rejecting them. Lenient by policy: an unknown kind is still an event
// worth keeping, not a protocol violation.
func ParseActionType(s string) ActionType {
	t := ActionType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actionTypes[t]; ok {
		return t
	}
	return ActionShareView
}

// UserAction is an append-only history record. Rows are never updated or
// deleted individually; retention pruning removes them in bulk by age.
// The bigserial ID breaks timestamp ties in insertion order.
type UserAction struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionRef uuid.UUID `gorm:"type:uuid;column:session_ref;not null;index:idx_action_session_ts,priority:1" json:"-"`

	UserID     uuid.UUID  `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	UserName   string     `gorm:"column:user_name;type:text;not null" json:"user_name"`
	Kind       ActionType `gorm:"column:kind;type:text;not null" json:"kind"`
	PersonaTag string     `gorm:"column:persona_tag;type:text" json:"persona_tag,omitempty"`

	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	Broadcast bool           `gorm:"column:broadcast;not null;default:true" json:"broadcast"`

	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_action_session_ts,priority:2" json:"timestamp"`
}

func (UserAction) TableName() string { return "user_action" }

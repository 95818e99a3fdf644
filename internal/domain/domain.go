package domain

import (
	"github.com/climatehub/collab-backend/internal/domain/collab"
)

type CollabSession = collab.CollabSession
type CollabParticipant = collab.CollabParticipant
type UserAction = collab.UserAction

type SessionStatus = collab.SessionStatus
type ParticipantRole = collab.ParticipantRole
type ParticipantStatus = collab.ParticipantStatus
type ActionType = collab.ActionType

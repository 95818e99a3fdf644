package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/climatehub/collab-backend/internal/http/response"
	"github.com/climatehub/collab-backend/internal/platform/ctxutil"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
	"github.com/climatehub/collab-backend/internal/services"
)

type CollabHandler struct {
	log          *logger.Logger
	sessions     services.SessionService
	participants services.ParticipantService
	actions      services.ActionService
	dispatcher   services.DispatcherService
}

func NewCollabHandler(log *logger.Logger, sessions services.SessionService, participants services.ParticipantService, actions services.ActionService, dispatcher services.DispatcherService) *CollabHandler {
	return &CollabHandler{
		log:          log.With("handler", "CollabHandler"),
		sessions:     sessions,
		participants: participants,
		actions:      actions,
		dispatcher:   dispatcher,
	}
}

func requestData(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return nil, false
	}
	return rd, true
}

func (h *CollabHandler) CreateSession(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}

	var req services.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, err := h.sessions.Create(dbc, rd.UserID, rd.UserName, rd.PersonaTag, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"session": session})
}

func (h *CollabHandler) JoinSession(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	var req services.JoinInput
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if req.UserName == "" {
		req.UserName = rd.UserName
	}
	if req.PersonaTag == "" {
		req.PersonaTag = rd.PersonaTag
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.participants.Join(dbc, sessionID, rd.UserID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	if err := h.dispatcher.AnnounceJoin(c.Request.Context(), sessionID, rd.UserID, req.UserName, req.PersonaTag, result); err != nil {
		h.log.Warn("join announce failed", "session_id", sessionID, "error", err)
	}
	response.RespondOK(c, result)
}

func (h *CollabHandler) LeaveSession(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.participants.Leave(dbc, sessionID, rd.UserID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	if err := h.dispatcher.AnnounceLeave(c.Request.Context(), sessionID, rd.UserID, rd.UserName); err != nil {
		h.log.Warn("leave announce failed", "session_id", sessionID, "error", err)
	}
	response.RespondOK(c, gin.H{"left": true})
}

func (h *CollabHandler) CloseSession(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.sessions.Close(dbc, sessionID, rd.UserID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"closed": true})
}

func (h *CollabHandler) GetSession(c *gin.Context) {
	if _, ok := requestData(c); !ok {
		return
	}
	sessionID := c.Param("id")

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	details, err := h.sessions.GetDetails(dbc, sessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, details)
}

func (h *CollabHandler) ListSessions(c *gin.Context) {
	if _, ok := requestData(c); !ok {
		return
	}

	var isPublic *bool
	if v := c.Query("public"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		isPublic = &b
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	sessions, err := h.sessions.ListActive(dbc, isPublic)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

func (h *CollabHandler) ListMySessions(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	sessions, err := h.sessions.ListForUser(dbc, rd.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

func (h *CollabHandler) UpdateSettings(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	var req services.UpdateSettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, err := h.sessions.UpdateSettings(dbc, sessionID, rd.UserID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (h *CollabHandler) History(c *gin.Context) {
	if _, ok := requestData(c); !ok {
		return
	}
	sessionID := c.Param("id")

	limit := services.DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		limit = n
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	actions, err := h.actions.History(dbc, sessionID, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"actions": actions})
}

type submitEventRequest struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

func (h *CollabHandler) SubmitEvent(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	var req submitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	ev := realtime.InboundEvent{
		SessionID:       sessionID,
		UserID:          rd.UserID,
		UserName:        rd.UserName,
		PersonaTag:      rd.PersonaTag,
		Kind:            req.Kind,
		Payload:         req.Payload,
		ClientTimestamp: req.Timestamp,
	}
	if err := h.dispatcher.Dispatch(c.Request.Context(), ev); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/climatehub/collab-backend/internal/platform/ctxutil"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
	"github.com/climatehub/collab-backend/internal/sse"
)

var errNotAuthenticated = errors.New("not authenticated")

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *sse.Hub

	mu      sync.RWMutex
	clients map[uuid.UUID]*sse.Client // keyed by user ID, one stream per user
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log.With("handler", "RealtimeHandler"),
		Hub:     hub,
		clients: make(map[uuid.UUID]*sse.Client),
	}
}

// Stream opens the SSE connection. An optional ?session= query
// subscribes the client to that session's topics immediately.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	userID := rd.UserID
	h.Log.Info("SSE stream open", "user_id", userID.String())

	h.mu.Lock()
	// A reconnect replaces any existing stream for this user.
	if existing, ok := h.clients[userID]; ok {
		h.Hub.CloseClient(existing)
		delete(h.clients, userID)
	}
	client := h.Hub.NewClient(userID)
	h.clients[userID] = client
	h.mu.Unlock()

	if sessionID := c.Query("session"); sessionID != "" {
		h.subscribeSession(client, sessionID)
	}

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if cur, ok := h.clients[userID]; ok && cur == client {
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}

func (h *RealtimeHandler) subscribeSession(client *sse.Client, sessionID string) {
	h.Hub.AddTopic(client, realtime.SessionTopic(sessionID))
	h.Hub.AddTopic(client, realtime.CursorTopic(sessionID))
	h.Hub.AddTopic(client, realtime.PresenceTopic(sessionID))
}

func (h *RealtimeHandler) unsubscribeSession(client *sse.Client, sessionID string) {
	h.Hub.RemoveTopic(client, realtime.SessionTopic(sessionID))
	h.Hub.RemoveTopic(client, realtime.CursorTopic(sessionID))
	h.Hub.RemoveTopic(client, realtime.PresenceTopic(sessionID))
}

func (h *RealtimeHandler) clientFor(c *gin.Context) (*sse.Client, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	h.mu.RLock()
	client, exists := h.clients[rd.UserID]
	h.mu.RUnlock()
	if !exists {
		c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this user"})
		return nil, false
	}
	return client, true
}

func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	client, ok := h.clientFor(c)
	if !ok {
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	h.subscribeSession(client, req.SessionID)
	c.JSON(http.StatusOK, gin.H{"message": "subscribed", "sessionId": req.SessionID})
}

func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	client, ok := h.clientFor(c)
	if !ok {
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	h.unsubscribeSession(client, req.SessionID)
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed", "sessionId": req.SessionID})
}

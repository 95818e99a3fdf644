package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
)

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Topics   map[string]bool
	Outbound chan realtime.Message
	done     chan struct{}
	closing  sync.Once
	Logger   *logger.Logger
}

type Hub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:        log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (hub *Hub) NewClient(userID uuid.UUID) *Client {
	id := uuid.New()
	return &Client{
		ID:       id,
		UserID:   userID,
		Topics:   make(map[string]bool),
		Outbound: make(chan realtime.Message, 16),
		done:     make(chan struct{}),
		Logger:   hub.logger.With("clientID", id),
	}
}

func (hub *Hub) AddTopic(client *Client, topic string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}

	client.Topics[topic] = true

	clients, exists := hub.subscriptions[topic]
	if !exists {
		clients = make(map[*Client]bool)
		hub.subscriptions[topic] = clients
	}
	clients[client] = true

	hub.logger.Debug("SSE client subscribed", "clientID", client.ID, "topic", topic)
}

func (hub *Hub) RemoveTopic(client *Client, topic string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}
	delete(client.Topics, topic)

	if subMap, ok := hub.subscriptions[topic]; ok {
		delete(subMap, client)
		if len(subMap) == 0 {
			delete(hub.subscriptions, topic)
		}
	}
	hub.logger.Debug("SSE client unsubscribed from topic", "clientID", client.ID, "topic", topic)
}

func (hub *Hub) RemoveClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for t := range client.Topics {
		if subMap, ok := hub.subscriptions[t]; ok {
			delete(subMap, client)
			if len(subMap) == 0 {
				delete(hub.subscriptions, t)
			}
		}
	}
	client.Topics = make(map[string]bool)
	hub.logger.Debug("SSE client unsubscribed from all topics", "clientID", client.ID)
}

// Broadcast delivers msg to every subscriber of its topic. Slow clients
// with a full outbound buffer are skipped rather than blocking the hub.
func (hub *Hub) Broadcast(msg realtime.Message) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if msg.Topic == "" {
		return
	}
	clientsMap, ok := hub.subscriptions[msg.Topic]
	if !ok {
		return
	}
	for c := range clientsMap {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID)
		}
	}
}

func (hub *Hub) SubscriberCount(topic string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[topic])
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Outbound:
			_, _ = fmt.Fprintf(w, "event: message\n")
			jsonBytes, err := json.Marshal(msg)
			if err != nil {
				hub.logger.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", string(jsonBytes))
			flusher.Flush()
		}
	}
}

// CloseClient is safe to call more than once; on a reconnect both the
// replacing request and the unwinding stream close the same client.
func (hub *Hub) CloseClient(client *Client) {
	client.closing.Do(func() {
		close(client.done)
		hub.RemoveClient(client)
		close(client.Outbound)
	})
}

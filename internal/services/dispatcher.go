package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/climatehub/collab-backend/internal/clients/redis"
	types "github.com/climatehub/collab-backend/internal/domain"
	"github.com/climatehub/collab-backend/internal/domain/collab"
	"github.com/climatehub/collab-backend/internal/platform/apierr"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
	"github.com/climatehub/collab-backend/internal/realtime/bus"
)

const (
	dispatchQueueSize = 64
	workerIdleTimeout = 2 * time.Minute
)

type snapshotKind int

const (
	snapshotNone snapshotKind = iota
	snapshotView
	snapshotFilter
)

type routeRule struct {
	ephemeral bool
	entry     redisclient.EntryKind
	snapshot  snapshotKind
	topic     func(sessionID string) string
}

// Routing per action kind. Ephemeral kinds skip the durable log and go
// to their sub-topic; structural kinds are persisted before publishing.
// Kinds absent from the table are structural with no snapshot effect.
var routes = map[collab.ActionType]routeRule{
	collab.ActionCursorMove:   {ephemeral: true, entry: redisclient.EntryCursor, topic: realtime.CursorTopic},
	collab.ActionShareView:    {snapshot: snapshotView, topic: realtime.SessionTopic},
	collab.ActionFilterApply:  {snapshot: snapshotFilter, topic: realtime.SessionTopic},
	collab.ActionFilterRemove: {snapshot: snapshotFilter, topic: realtime.SessionTopic},
}

// Presence beacons are not part of the durable action vocabulary, so
// they are matched on the raw inbound kind before action parsing.
const kindPresenceUpdate = "presence_update"

var presenceRoute = routeRule{ephemeral: true, entry: redisclient.EntryPresence, topic: realtime.PresenceTopic}

func routeFor(kind collab.ActionType) routeRule {
	if r, ok := routes[kind]; ok {
		return r
	}
	return routeRule{topic: realtime.SessionTopic}
}

type dispatchJob struct {
	run  func(ctx context.Context) error
	done chan error
}

type DispatcherService interface {
	Dispatch(ctx context.Context, ev realtime.InboundEvent) error
	AnnounceJoin(ctx context.Context, sessionID string, userID uuid.UUID, userName, personaTag string, result *JoinResult) error
	AnnounceLeave(ctx context.Context, sessionID string, userID uuid.UUID, userName string) error
	Close()
}

type dispatcherService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions SessionService
	actions  ActionService
	enricher Enricher
	state    redisclient.StateStore
	bus      bus.Bus
	ttl      time.Duration

	mu     sync.Mutex
	queues map[string]chan dispatchJob
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

func NewDispatcherService(db *gorm.DB, baseLog *logger.Logger, sessions SessionService, actions ActionService, enricher Enricher, state redisclient.StateStore, b bus.Bus, ttl time.Duration) DispatcherService {
	if ttl <= 0 {
		ttl = redisclient.DefaultTTL
	}
	return &dispatcherService{
		db:       db,
		log:      baseLog.With("service", "DispatcherService"),
		sessions: sessions,
		actions:  actions,
		enricher: enricher,
		state:    state,
		bus:      b,
		ttl:      ttl,
		queues:   make(map[string]chan dispatchJob),
		stop:     make(chan struct{}),
	}
}

// enqueue places a job on the session's FIFO queue, starting a worker
// if none is running. A full queue rejects the job rather than block.
func (s *dispatcherService) enqueue(sessionID string, job dispatchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apierr.Transient(fmt.Errorf("dispatcher closed"))
	}

	q, ok := s.queues[sessionID]
	if !ok {
		q = make(chan dispatchJob, dispatchQueueSize)
		s.queues[sessionID] = q
		s.wg.Add(1)
		go s.worker(sessionID, q)
	}

	select {
	case q <- job:
		return nil
	default:
		return apierr.Transient(fmt.Errorf("session %s event queue saturated", sessionID))
	}
}

// worker drains one session's queue in order. After sitting idle it
// removes itself; removal happens under the same mutex as sends so a
// concurrent enqueue either lands before the removal or starts a fresh
// worker.
func (s *dispatcherService) worker(sessionID string, q chan dispatchJob) {
	defer s.wg.Done()
	idle := time.NewTimer(workerIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case job := <-q:
			job.done <- s.runJob(job)
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(workerIdleTimeout)
		case <-s.stop:
			for {
				select {
				case job := <-q:
					job.done <- s.runJob(job)
				default:
					return
				}
			}
		case <-idle.C:
			s.mu.Lock()
			select {
			case job := <-q:
				s.mu.Unlock()
				job.done <- s.runJob(job)
				idle.Reset(workerIdleTimeout)
			default:
				delete(s.queues, sessionID)
				s.mu.Unlock()
				return
			}
		}
	}
}

func (s *dispatcherService) runJob(job dispatchJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("dispatch job panicked", "panic", r)
			err = apierr.Transient(fmt.Errorf("dispatch panic: %v", r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return job.run(ctx)
}

func (s *dispatcherService) submit(ctx context.Context, sessionID string, run func(ctx context.Context) error) error {
	job := dispatchJob{run: run, done: make(chan error, 1)}
	if err := s.enqueue(sessionID, job); err != nil {
		return err
	}
	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *dispatcherService) Dispatch(ctx context.Context, ev realtime.InboundEvent) error {
	if ev.UserID == uuid.Nil {
		return apierr.Validation("user id required")
	}

	// Resolve before queueing so unknown sessions fail fast and never
	// spin up a worker.
	session, err := s.sessions.GetActive(dbctx.Context{Ctx: ctx}, ev.SessionID)
	if err != nil {
		return err
	}

	if strings.ToLower(strings.TrimSpace(ev.Kind)) == kindPresenceUpdate {
		return s.submit(ctx, ev.SessionID, func(jobCtx context.Context) error {
			return s.handleEphemeral(dbctx.Context{Ctx: jobCtx}, ev, kindPresenceUpdate, presenceRoute)
		})
	}

	kind := collab.ParseActionType(ev.Kind)
	rule := routeFor(kind)

	return s.submit(ctx, ev.SessionID, func(jobCtx context.Context) error {
		dbc := dbctx.Context{Ctx: jobCtx}

		if rule.ephemeral {
			return s.handleEphemeral(dbc, ev, string(kind), rule)
		}
		return s.handleStructural(dbc, session, ev, kind, rule)
	})
}

// handleEphemeral stores the latest state under a TTL and publishes. A
// store failure degrades to publish-only. Cursor and presence traffic
// skips enrichment.
func (s *dispatcherService) handleEphemeral(dbc dbctx.Context, ev realtime.InboundEvent, kind string, rule routeRule) error {
	if s.state != nil && len(ev.Payload) > 0 {
		if err := s.state.SetEntry(dbc.Ctx, rule.entry, ev.SessionID, ev.UserID.String(), ev.Payload, s.ttl); err != nil {
			s.log.Warn("ephemeral state write failed", "session_id", ev.SessionID, "kind", kind, "error", err)
		}
	}
	s.publish(dbc.Ctx, ev, kind, rule, false)
	return nil
}

// handleStructural persists first; a durable store failure means no
// broadcast at all.
func (s *dispatcherService) handleStructural(dbc dbctx.Context, session *types.CollabSession, ev realtime.InboundEvent, kind collab.ActionType, rule routeRule) error {
	ts := time.Now().UTC()
	if ev.ClientTimestamp != nil && !ev.ClientTimestamp.IsZero() {
		ts = ev.ClientTimestamp.UTC()
	}

	if _, err := s.actions.Record(dbc, RecordActionInput{
		SessionRef: session.ID,
		UserID:     ev.UserID,
		UserName:   ev.UserName,
		Kind:       string(kind),
		PersonaTag: ev.PersonaTag,
		Payload:    ev.Payload,
		Broadcast:  true,
		Timestamp:  ts,
	}); err != nil {
		return err
	}

	switch rule.snapshot {
	case snapshotView:
		if err := s.sessions.UpdateViewSnapshot(dbc, session.ID, ev.Payload); err != nil {
			s.log.Warn("view snapshot update failed", "session_id", ev.SessionID, "error", err)
		}
	case snapshotFilter:
		if err := s.sessions.UpdateFilterSnapshot(dbc, session.ID, ev.Payload); err != nil {
			s.log.Warn("filter snapshot update failed", "session_id", ev.SessionID, "error", err)
		}
	}

	s.publish(dbc.Ctx, ev, string(kind), rule, true)
	return nil
}

// publish enriches and fans out. Enrichment failures fall back to the
// plain message; the event always reaches subscribers.
func (s *dispatcherService) publish(ctx context.Context, ev realtime.InboundEvent, kind string, rule routeRule, enrich bool) {
	msg := realtime.Message{
		Topic:           rule.topic(ev.SessionID),
		Kind:            kind,
		UserID:          ev.UserID,
		UserName:        ev.UserName,
		PersonaTag:      ev.PersonaTag,
		Payload:         ev.Payload,
		ServerTimestamp: time.Now().UTC(),
	}
	if enrich {
		msg.Enrichments = s.safeEnrich(ev.PersonaTag, ev.Payload)
	}

	if err := s.bus.Publish(ctx, msg); err != nil {
		s.log.Warn("publish failed", "topic", msg.Topic, "kind", msg.Kind, "error", err)
	}
}

func (s *dispatcherService) safeEnrich(personaTag string, payload json.RawMessage) (out map[string]any) {
	if s.enricher == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("enrichment panicked, publishing unenriched", "persona_tag", personaTag, "panic", r)
			out = nil
		}
	}()
	return s.enricher.Enrich(personaTag, payload)
}

func (s *dispatcherService) announce(ctx context.Context, sessionID, kind string, userID uuid.UUID, userName string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.submit(ctx, sessionID, func(jobCtx context.Context) error {
		msg := realtime.Message{
			Topic:           realtime.SessionTopic(sessionID),
			Kind:            kind,
			UserID:          userID,
			UserName:        userName,
			Payload:         raw,
			ServerTimestamp: time.Now().UTC(),
		}
		if err := s.bus.Publish(jobCtx, msg); err != nil {
			s.log.Warn("membership announce failed", "topic", msg.Topic, "kind", kind, "error", err)
		}
		return nil
	})
}

// AnnounceJoin broadcasts a membership update through the session's
// queue so it cannot overtake earlier events.
func (s *dispatcherService) AnnounceJoin(ctx context.Context, sessionID string, userID uuid.UUID, userName, personaTag string, result *JoinResult) error {
	payload := map[string]any{
		"userId":       userID,
		"userName":     userName,
		"personaTag":   personaTag,
		"currentCount": result.CurrentCount,
		"color":        result.Color,
		"role":         result.Role,
		"rejoined":     result.Rejoined,
	}
	return s.announce(ctx, sessionID, "participant_joined", userID, userName, payload)
}

func (s *dispatcherService) AnnounceLeave(ctx context.Context, sessionID string, userID uuid.UUID, userName string) error {
	payload := map[string]any{
		"userId":   userID,
		"userName": userName,
	}
	return s.announce(ctx, sessionID, "participant_left", userID, userName, payload)
}

// Close rejects new work, lets each worker run its queued jobs to
// completion, and blocks until every worker has exited.
func (s *dispatcherService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queues = make(map[string]chan dispatchJob)
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

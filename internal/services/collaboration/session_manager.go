package collaboration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"pdf-coview/internal/metrics"
	"pdf-coview/internal/middleware"
	"pdf-coview/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

/*
SessionManager is the coordination core for co-viewing.

All session state (connection registry, session store, broadcast groups) is
owned by one goroutine started by Start. Transport goroutines never touch
that state: they submit connect, frame and disconnect events, and the loop
handles them one at a time together with the periodic expiry sweep. Every
read-modify-write on a session therefore completes inside a single event.
*/

// DocumentCleaner deletes the uploaded PDF behind a terminated session.
// ScheduleDelete must not block; the deletion itself happens elsewhere.
type DocumentCleaner interface {
	ScheduleDelete(sessionID, documentURL string) error
}

// Options tunes a SessionManager. Zero values fall back to defaults.
type Options struct {
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	EventQueueSize int
}

const (
	DefaultSessionTTL     = 24 * time.Hour
	DefaultSweepInterval  = time.Hour
	defaultEventQueueSize = 256
)

type eventKind int

const (
	eventConnect eventKind = iota
	eventFrame
	eventDisconnect
)

func (k eventKind) String() string {
	switch k {
	case eventConnect:
		return "Connect"
	case eventFrame:
		return "Frame"
	case eventDisconnect:
		return "Disconnect"
	default:
		return "Unknown"
	}
}

type event struct {
	kind   eventKind
	connID string
	peer   Peer
	frame  []byte
}

// SessionManager manages all co-viewing sessions
type SessionManager struct {
	registry *Registry
	store    *Store
	groups   *Groups
	cleaner  DocumentCleaner

	sessionTTL    time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	// Control
	events   chan event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionManager creates a new session manager. cleaner may be nil, in
// which case terminated sessions leave their documents in place.
func NewSessionManager(cleaner DocumentCleaner, opts Options) *SessionManager {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.EventQueueSize <= 0 {
		opts.EventQueueSize = defaultEventQueueSize
	}

	registry := NewRegistry()
	return &SessionManager{
		registry:      registry,
		store:         NewStore(),
		groups:        NewGroups(registry),
		cleaner:       cleaner,
		sessionTTL:    opts.SessionTTL,
		sweepInterval: opts.SweepInterval,
		now:           time.Now,
		events:        make(chan event, opts.EventQueueSize),
		done:          make(chan struct{}),
	}
}

// Start begins the session manager event loop
func (sm *SessionManager) Start() {
	log.Println("🔄 Starting co-viewing session manager...")

	sm.wg.Add(1)
	go sm.loop()

	log.Printf("✓ Session manager started (session ttl %s, sweep every %s)", sm.sessionTTL, sm.sweepInterval)
}

func (sm *SessionManager) loop() {
	defer sm.wg.Done()

	ticker := time.NewTicker(sm.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.done:
			return
		case ev := <-sm.events:
			sm.dispatch(ev)
		case <-ticker.C:
			sm.runSweep()
		}
	}
}

// Connect registers a new live connection.
func (sm *SessionManager) Connect(p Peer) {
	sm.submit(event{kind: eventConnect, connID: p.ID(), peer: p})
}

// Dispatch hands an inbound frame from connID to the loop.
func (sm *SessionManager) Dispatch(connID string, frame []byte) {
	sm.submit(event{kind: eventFrame, connID: connID, frame: frame})
}

// Disconnect reports that connID is gone.
func (sm *SessionManager) Disconnect(connID string) {
	sm.submit(event{kind: eventDisconnect, connID: connID})
}

func (sm *SessionManager) submit(ev event) {
	select {
	case sm.events <- ev:
	case <-sm.done:
	}
}

// dispatch runs one event to completion. A panic is turned into an
// internal error for the originating connection and the loop keeps going.
func (sm *SessionManager) dispatch(ev event) {
	ctx, span := middleware.StartSpan(context.Background(), "SessionManager."+ev.kind.String(),
		attribute.String("connection.id", ev.connID),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrInternal, r)
			log.Printf("PANIC handling %s from %s: %v\n%s", ev.kind, ev.connID, r, debug.Stack())
			middleware.AddSpanError(ctx, err)
			sm.replyError(ev.connID, err)
		}
	}()

	switch ev.kind {
	case eventConnect:
		sm.HandleConnect(ev.peer)

	case eventFrame:
		if err := sm.HandleFrame(ev.connID, ev.frame); err != nil {
			middleware.AddSpanError(ctx, err)
			sm.replyError(ev.connID, err)
		}

	case eventDisconnect:
		results := sm.HandleDisconnect(ev.connID)
		span.SetAttributes(attribute.Int("sessions.affected", len(results)))
		logCleanup(ev.connID, results)
	}
}

// HandleConnect adds p to the connection registry.
func (sm *SessionManager) HandleConnect(p Peer) {
	sm.registry.Add(p)
	metrics.ActiveConnections.Set(float64(sm.registry.Len()))
	metrics.TotalConnections.Inc()
	log.Printf("  Connection %s registered (total: %d)", p.ID(), sm.registry.Len())
}

// HandleFrame decodes a raw frame and handles it.
func (sm *SessionManager) HandleFrame(connID string, frame []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return sm.HandleMessage(connID, env)
}

// HandleMessage routes an inbound event to its operation and replies to
// the requester on success. Errors are returned for the caller to report.
func (sm *SessionManager) HandleMessage(connID string, env models.Envelope) error {
	switch env.Event {
	case models.EventCreateSession:
		metrics.MessagesReceived.WithLabelValues(env.Event).Inc()
		var documentURL string
		if err := json.Unmarshal(env.Data, &documentURL); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		sessionID, err := sm.CreateSession(connID, documentURL)
		if err != nil {
			return err
		}
		return sm.groups.Send(connID, models.OutboundMessage{
			Event: models.EventSessionCreated,
			Data:  models.SessionCreated{SessionID: sessionID},
		})

	case models.EventJoinSession:
		metrics.MessagesReceived.WithLabelValues(env.Event).Inc()
		var sessionID string
		if err := json.Unmarshal(env.Data, &sessionID); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		snapshot, err := sm.JoinSession(sessionID, connID)
		if err != nil {
			return err
		}
		return sm.groups.Send(connID, models.OutboundMessage{
			Event: models.EventSessionJoined,
			Data:  snapshot,
		})

	case models.EventPageChange:
		metrics.MessagesReceived.WithLabelValues(env.Event).Inc()
		var req models.PageChangeRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return sm.ChangePage(req.SessionID, connID, req.PageNumber)

	default:
		metrics.MessagesReceived.WithLabelValues("unknown").Inc()
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// replyError reports err to connID only.
func (sm *SessionManager) replyError(connID string, err error) {
	metrics.HandlerErrors.WithLabelValues(errorKind(err)).Inc()
	if errorKind(err) == "internal" {
		log.Printf("⚠️  Internal error for connection %s: %v", connID, err)
	}

	sendErr := sm.groups.Send(connID, models.OutboundMessage{
		Event: models.EventError,
		Data:  models.ErrorPayload{Message: clientMessage(err)},
	})
	if sendErr != nil {
		log.Printf("⚠️  Failed to send error to %s: %v", connID, sendErr)
	}
}

func (sm *SessionManager) runSweep() {
	_, span := middleware.StartSpan(context.Background(), "SessionManager.Sweep")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC during expiry sweep: %v\n%s", r, debug.Stack())
		}
	}()

	expired := sm.Sweep(sm.now())
	span.SetAttributes(attribute.Int("sessions.expired", len(expired)))
}

// Shutdown stops the loop and closes every live connection.
func (sm *SessionManager) Shutdown() {
	log.Println("🛑 Shutting down session manager...")

	sm.stopOnce.Do(func() { close(sm.done) })
	sm.wg.Wait()

	// The loop has exited, so the registry is ours now.
	for _, p := range sm.registry.All() {
		p.Close()
	}

	log.Println("✓ Session manager shutdown complete")
}

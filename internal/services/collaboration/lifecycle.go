package collaboration

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pdf-coview/internal/metrics"
	"pdf-coview/internal/models"
)

// CreateSession starts a session controlled by connID and subscribes
// connID to its broadcast group.
func (sm *SessionManager) CreateSession(connID, documentURL string) (string, error) {
	if strings.TrimSpace(documentURL) == "" {
		return "", fmt.Errorf("%w: document url is required", ErrInvalidPayload)
	}

	sessionID, err := sm.store.Create(connID, documentURL)
	if errors.Is(err, ErrDocumentInUse) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	sm.groups.Subscribe(sessionID, connID)

	metrics.SessionsCreated.Inc()
	metrics.ActiveSessions.Set(float64(sm.store.Len()))
	log.Printf("  Session %s created by %s for %s", sessionID, connID, documentURL)

	return sessionID, nil
}

// JoinSession adds connID as a viewer and returns the state it should
// render first. Joining twice has no further effect.
func (sm *SessionManager) JoinSession(sessionID, connID string) (models.SessionSnapshot, error) {
	if err := sm.store.AddViewer(sessionID, connID); err != nil {
		return models.SessionSnapshot{}, err
	}
	session, ok := sm.store.Get(sessionID)
	if !ok {
		return models.SessionSnapshot{}, ErrSessionNotFound
	}
	sm.groups.Subscribe(sessionID, connID)

	log.Printf("  Connection %s joined session %s (viewers: %d)", connID, sessionID, len(session.Viewers))

	return models.SessionSnapshot{
		DocumentURL: session.DocumentURL,
		CurrentPage: session.CurrentPage,
	}, nil
}

// Sweep terminates every session older than the session TTL as of now and
// returns their ids. Members are not notified.
func (sm *SessionManager) Sweep(now time.Time) []string {
	var expired []string

	sm.store.ForEach(func(session *models.Session) {
		if !session.Expired(now, sm.sessionTTL) {
			return
		}
		if err := sm.expire(session); err != nil {
			log.Printf("⚠️  %v", err)
		}
		expired = append(expired, session.ID)
	})

	if len(expired) > 0 {
		log.Printf("  Expiry sweep removed %d session(s), %d remaining", len(expired), sm.store.Len())
	}
	return expired
}

// expire terminates one expired session. A panic is contained here so the
// rest of the sweep still runs.
func (sm *SessionManager) expire(session *models.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic expiring session %s: %v", ErrInternal, session.ID, r)
		}
	}()
	return sm.terminate(session, "expired")
}

// terminate removes the session and its group, then schedules deletion of
// its document. The in-memory removal happens first and is never undone by
// a cleanup failure.
func (sm *SessionManager) terminate(session *models.Session, reason string) error {
	sm.store.Delete(session.ID)
	sm.groups.Drop(session.ID)

	metrics.SessionsTerminated.WithLabelValues(reason).Inc()
	metrics.ActiveSessions.Set(float64(sm.store.Len()))
	log.Printf("  Session %s terminated (%s)", session.ID, reason)

	if sm.cleaner == nil {
		return nil
	}
	if err := sm.cleaner.ScheduleDelete(session.ID, session.DocumentURL); err != nil {
		return fmt.Errorf("failed to schedule document cleanup for session %s: %w", session.ID, err)
	}
	return nil
}

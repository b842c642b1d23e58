package collaboration

import (
	"fmt"
	"log"

	"pdf-coview/internal/metrics"
	"pdf-coview/internal/models"
)

// Role is the part a connection played in a session.
type Role string

const (
	RoleController Role = "controller"
	RoleViewer     Role = "viewer"
)

// CleanupResult is the outcome of reconciling one session after a
// disconnect.
type CleanupResult struct {
	SessionID string
	Role      Role
	Err       error
}

// HandleDisconnect forgets connID and reconciles every session it took
// part in: sessions it controlled are terminated even if viewers remain,
// sessions it watched just lose a viewer. Each session is visited once and
// a failure in one does not stop the others.
func (sm *SessionManager) HandleDisconnect(connID string) []CleanupResult {
	if _, ok := sm.registry.Remove(connID); ok {
		metrics.ActiveConnections.Set(float64(sm.registry.Len()))
	}

	var results []CleanupResult
	sm.store.ForEach(func(session *models.Session) {
		if result, involved := sm.reconcileSession(session, connID); involved {
			results = append(results, result)
		}
	})
	return results
}

func (sm *SessionManager) reconcileSession(session *models.Session, connID string) (result CleanupResult, involved bool) {
	result.SessionID = session.ID

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%w: panic during cleanup: %v", ErrInternal, r)
			involved = true
		}
	}()

	switch {
	case session.ControllerID == connID:
		result.Role = RoleController
		result.Err = sm.terminate(session, "controller_disconnect")
		return result, true

	case session.HasViewer(connID):
		result.Role = RoleViewer
		sm.groups.Unsubscribe(session.ID, connID)
		result.Err = sm.store.RemoveViewer(session.ID, connID)
		return result, true
	}

	return result, false
}

func logCleanup(connID string, results []CleanupResult) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Printf("⚠️  Cleanup of session %s (%s) after %s left: %v", r.SessionID, r.Role, connID, r.Err)
		}
	}
	log.Printf("  Connection %s disconnected (%d session(s) reconciled, %d failed)", connID, len(results), failed)
}

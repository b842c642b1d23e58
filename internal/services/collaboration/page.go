package collaboration

import (
	"fmt"

	"pdf-coview/internal/metrics"
	"pdf-coview/internal/models"
)

// ChangePage moves the session to page and broadcasts the new page to the
// whole group, the controller included. Only the controller may do this.
func (sm *SessionManager) ChangePage(sessionID, connID string, page int) error {
	session, ok := sm.store.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if connID != session.ControllerID {
		return ErrUnauthorized
	}
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	if err := sm.store.SetPage(sessionID, page); err != nil {
		return err
	}

	if _, err := sm.groups.Publish(sessionID, models.OutboundMessage{
		Event: models.EventPageUpdate,
		Data:  page,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	metrics.PageChanges.Inc()
	return nil
}

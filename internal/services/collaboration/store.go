package collaboration

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"pdf-coview/internal/models"
)

// Store is the authoritative table of live sessions.
//
// It holds no lock: every call is made from the SessionManager event loop,
// which runs one event at a time. Records never leave the store; Get and
// ForEach hand out copies. A document URL belongs to at most one live
// session, since terminating a session deletes its document.
type Store struct {
	sessions  map[string]*models.Session
	documents map[string]string // document url -> session id
	now       func() time.Time
	newID    func() (string, error)
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		sessions:  make(map[string]*models.Session),
		documents: make(map[string]string),
		now:       time.Now,
		newID:     randomID,
	}
}

// randomID returns a 128-bit random token, hex encoded.
func randomID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create allocates a session controlled by controllerID. It fails with
// ErrDocumentInUse if a live session already shows documentURL.
func (s *Store) Create(controllerID, documentURL string) (string, error) {
	if _, taken := s.documents[documentURL]; taken {
		return "", ErrDocumentInUse
	}

	var id string
	for {
		candidate, err := s.newID()
		if err != nil {
			return "", err
		}
		if _, taken := s.sessions[candidate]; !taken {
			id = candidate
			break
		}
	}

	s.sessions[id] = models.NewSession(id, controllerID, documentURL, s.now())
	s.documents[documentURL] = id
	return id, nil
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*models.Session, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// AddViewer adds connID to the session's viewers. The controller is never
// recorded as a viewer of its own session.
func (s *Store) AddViewer(id, connID string) error {
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if connID == session.ControllerID {
		return nil
	}
	session.Viewers[connID] = struct{}{}
	return nil
}

// RemoveViewer drops connID from the session's viewers if present.
func (s *Store) RemoveViewer(id, connID string) error {
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	delete(session.Viewers, connID)
	return nil
}

// SetPage moves the session to page.
func (s *Store) SetPage(id string, page int) error {
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.CurrentPage = page
	return nil
}

// Delete removes the session. Deleting an unknown id is a no-op; the
// return value reports whether anything was removed.
func (s *Store) Delete(id string) bool {
	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	delete(s.sessions, id)
	delete(s.documents, session.DocumentURL)
	return true
}

// ForEach calls fn once for every session present when the traversal
// starts. fn receives a copy and may mutate the store.
func (s *Store) ForEach(fn func(session *models.Session)) {
	snapshot := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		snapshot = append(snapshot, session.Clone())
	}
	for _, session := range snapshot {
		fn(session)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

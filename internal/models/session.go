package models

import (
	"sort"
	"time"
)

// Session is one PDF co-viewing instance: a single controller that turns
// pages and a set of viewers that follow along.
type Session struct {
	ID           string              `json:"id"`
	ControllerID string              `json:"controller_id"`
	Viewers      map[string]struct{} `json:"-"`
	CurrentPage  int                 `json:"current_page"`
	DocumentURL  string              `json:"document_url"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewSession returns a session positioned on the first page.
func NewSession(id, controllerID, documentURL string, createdAt time.Time) *Session {
	return &Session{
		ID:           id,
		ControllerID: controllerID,
		Viewers:      make(map[string]struct{}),
		CurrentPage:  1,
		DocumentURL:  documentURL,
		CreatedAt:    createdAt,
	}
}

// Clone returns a deep copy so callers can't reach the stored viewer set.
func (s *Session) Clone() *Session {
	c := *s
	c.Viewers = make(map[string]struct{}, len(s.Viewers))
	for id := range s.Viewers {
		c.Viewers[id] = struct{}{}
	}
	return &c
}

// HasViewer reports whether connID is watching the session.
func (s *Session) HasViewer(connID string) bool {
	_, ok := s.Viewers[connID]
	return ok
}

// ViewerIDs returns the viewer ids in sorted order.
func (s *Session) ViewerIDs() []string {
	ids := make([]string, 0, len(s.Viewers))
	for id := range s.Viewers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expired reports whether the session is strictly older than ttl.
// A session exactly ttl old is still live.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) > ttl
}

// SessionSnapshot is the initial state handed to a joining viewer.
type SessionSnapshot struct {
	DocumentURL string `json:"documentUrl"`
	CurrentPage int    `json:"currentPage"`
}

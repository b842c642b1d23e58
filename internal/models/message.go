package models

import "encoding/json"

// Event names on the real-time channel.
const (
	EventCreateSession  = "create-session"
	EventJoinSession    = "join-session"
	EventPageChange     = "page-change"
	EventSessionCreated = "session-created"
	EventSessionJoined  = "session-joined"
	EventPageUpdate     = "page-update"
	EventError          = "error"
)

// Envelope is the inbound frame: an event name and its raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage is the frame written back to clients.
type OutboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// PageChangeRequest is the payload of a page-change event.
type PageChangeRequest struct {
	SessionID  string `json:"sessionId"`
	PageNumber int    `json:"pageNumber"`
}

// SessionCreated is the payload of a session-created event.
type SessionCreated struct {
	SessionID string `json:"sessionId"`
}

// ErrorPayload is the payload of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

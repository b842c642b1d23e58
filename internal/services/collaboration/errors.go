package collaboration

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthorized    = errors.New("unauthorized to change page")
	ErrInvalidPage     = errors.New("invalid page number")
	ErrDocumentInUse   = errors.New("document already in use by a live session")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrInternal        = errors.New("internal failure")
)

// clientMessage maps a handler error to the text sent to the originating
// connection. Anything unrecognised is reported as an internal error so
// details never leak to clients.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized to change page"
	case errors.Is(err, ErrInvalidPage):
		return "Invalid page number"
	case errors.Is(err, ErrDocumentInUse):
		return "Document already in use"
	case errors.Is(err, ErrInvalidPayload):
		return "Invalid payload"
	case errors.Is(err, ErrUnknownEvent):
		return "Unknown event"
	default:
		return "Internal server error"
	}
}

// errorKind is the metrics label for err.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrDocumentInUse):
		return "conflict"
	case errors.Is(err, ErrInvalidPage), errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrUnknownEvent):
		return "bad_request"
	default:
		return "internal"
	}
}

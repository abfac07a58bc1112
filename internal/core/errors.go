package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeUnknownParticipant = "unknown_participant"
	ErrCodeUnknownSession     = "unknown_session"
	ErrCodeSessionClosed      = "session_closed"
	ErrCodeBadRequest         = "bad_request"
)

// Per-recipient delivery reasons. These are reported in outcomes, never
// raised as call errors.
const (
	ReasonSelf        = "self"
	ReasonUnreachable = "unreachable"
	ReasonTimeout     = "timeout"
)

var (
	ErrUnauthorized       = errors.New("caller is not the session moderator")
	ErrUnknownParticipant = errors.New("participant not registered")
	ErrUnknownSession     = errors.New("session not found")
	ErrSessionClosed      = errors.New("session is closed")
	ErrBadRequest         = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrorCode maps a domain error to its wire code.
func ErrorCode(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return ErrCodeUnauthorized
	case errors.Is(err, ErrUnknownParticipant):
		return ErrCodeUnknownParticipant
	case errors.Is(err, ErrUnknownSession):
		return ErrCodeUnknownSession
	case errors.Is(err, ErrSessionClosed):
		return ErrCodeSessionClosed
	default:
		return ErrCodeBadRequest
	}
}

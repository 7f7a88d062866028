package quiz

import "errors"

// Domain errors.
var (
	ErrNotFound          = errors.New("quiz not found")
	ErrEmptyBank         = errors.New("question bank has no usable questions")
	ErrOracleUnavailable = errors.New("difficulty oracle unavailable")
	ErrPersistence       = errors.New("result persistence failed")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrIntegrity         = errors.New("integrity constraint violated")
)

// Session errors returned by the controller.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrNotPresenting = errors.New("no question is awaiting an answer")
	ErrInvalidOption = errors.New("option is not one of the question's choices")
	ErrNextNotReady  = errors.New("next question is not ready")
)

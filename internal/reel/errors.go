package reel

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the Message on *Error is what the UI shows.
var (
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrSubmission          = errors.New("submission failed")
	ErrUnknownSession      = errors.New("unknown session")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrArtifact            = errors.New("artifact unavailable")
	ErrStorage             = errors.New("job store write failed")
)

// Error is a caller-facing orchestrator error.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Transient reports whether polling again later may succeed.
func (e *Error) Transient() bool {
	return e.Kind == ErrProviderUnavailable || e.Kind == ErrArtifact
}

func newError(kind error, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// UserMessage returns the human-readable text for err.
func UserMessage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}

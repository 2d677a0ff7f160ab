package selection

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a rejected selection change.
type ErrorKind int

const (
	// CapacityExceeded means the set is already full.
	CapacityExceeded ErrorKind = iota + 1
	// AlreadySelected means the item is already in the set.
	AlreadySelected
	// NotSelected means the item is not in the set.
	NotSelected
)

func (k ErrorKind) String() string {
	switch k {
	case CapacityExceeded:
		return "capacity_exceeded"
	case AlreadySelected:
		return "already_selected"
	case NotSelected:
		return "not_selected"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks.
var (
	ErrCapacityExceeded = &Error{Kind: CapacityExceeded}
	ErrAlreadySelected  = &Error{Kind: AlreadySelected}
	ErrNotSelected      = &Error{Kind: NotSelected}
)

// Error is returned by Set mutations. Error() is safe to show to users.
type Error struct {
	Kind     ErrorKind
	Item     string
	Capacity int
}

func (e *Error) Error() string {
	switch e.Kind {
	case CapacityExceeded:
		return fmt.Sprintf("maximum of %d images already selected", e.Capacity)
	case AlreadySelected:
		return "image is already selected"
	case NotSelected:
		return "image is not selected"
	default:
		return "selection error"
	}
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

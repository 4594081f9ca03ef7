package store

import (
	"errors"
	"fmt"

	"opsboard/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrPendingExtension is returned when a task already has a pending
// extension request.
var ErrPendingExtension = errors.New("task already has a pending extension request")

// ErrAlreadyDecided is returned when deciding an extension request that
// has already left the pending state.
var ErrAlreadyDecided = errors.New("extension request already decided")

// TransitionError reports a status transition outside the allowed edge set.
type TransitionError struct {
	From models.TaskStatus
	To   models.TaskStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// IsTransitionError reports whether err wraps a TransitionError.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

package optimistic

import (
	"errors"

	"github.com/kirychukyurii/webitel-job-sync/internal/fetcher"
)

var (
	// ErrBusy is returned when the same action is already pending for the target
	ErrBusy = errors.New("action already pending")
	// ErrRollbackApplied is returned when the server request failed and the
	// optimistic change was reverted
	ErrRollbackApplied = errors.New("action failed and was rolled back")
	// ErrNotFound is returned for an unknown target
	ErrNotFound = errors.New("target not found")
	// ErrInvalidTransition is returned when the target's current state does not allow the change
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnsupportedTransition is returned for a transition the backend cannot perform
	ErrUnsupportedTransition = errors.New("unsupported transition")
)

// Reason returns the user-facing reason of a failed server request
func Reason(err error) string {
	var fe *fetcher.Error
	if errors.As(err, &fe) {
		return fe.Message()
	}
	return err.Error()
}

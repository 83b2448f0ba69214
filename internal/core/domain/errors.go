package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them so callers
// can branch on the kind with errors.Is and still match the specific sentinel.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrCorruptSession   = errors.New("corrupt session record")
)

// Validation errors: rejected before any write.
var (
	ErrInvalidDuration   = fmt.Errorf("%w: duration must be greater than zero", ErrValidation)
	ErrTooFewCandidates  = fmt.Errorf("%w: at least 2 distinct candidates are required", ErrValidation)
	ErrUnknownCandidate  = fmt.Errorf("%w: candidate is not a registered user", ErrValidation)
	ErrPurgeNotConfirmed = fmt.Errorf("%w: purge must be confirmed with the session id", ErrValidation)
	ErrUserIsCandidate   = fmt.Errorf("%w: user is a candidate in the running session", ErrValidation)
	ErrInvalidName       = fmt.Errorf("%w: name is required", ErrValidation)
)

// Conflict errors: reported as warnings, no state change.
var (
	ErrSessionRunning    = fmt.Errorf("%w: session already running", ErrConflict)
	ErrNoActiveSession   = fmt.Errorf("%w: no active voting session", ErrConflict)
	ErrSessionActive     = fmt.Errorf("%w: session is still active", ErrConflict)
	ErrAlreadyRegistered = fmt.Errorf("%w: card is already registered", ErrConflict)
	ErrNoPendingCard     = fmt.Errorf("%w: no scanned card waiting for registration", ErrConflict)
)

var (
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
)

// IsWarning reports whether err should be surfaced as a warning rather than a
// failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrConflict)
}

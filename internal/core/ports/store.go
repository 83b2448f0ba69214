package ports

import (
	"context"
	"strings"
	"time"
)

// Store paths, slash separated.
const (
	PathUsers    = "users"
	PathSessions = "sessions"
	PathVotes    = "votes"
	PathConfig   = "config"
	PathMode     = "mode"
	PathNewUser  = "new_user"
)

// Change is a push notification that path (or one of its descendants) changed.
// Handlers re-read the latest snapshot; the notification carries no value.
type Change struct {
	Path string
	Op   string
}

// Segments splits the path into its components.
func (c Change) Segments() []string {
	return strings.Split(strings.Trim(c.Path, "/"), "/")
}

// Root returns the first path segment.
func (c Change) Root() string {
	return c.Segments()[0]
}

// ChangeSource delivers store change notifications for the given path prefixes.
// The channel is closed when ctx is cancelled or the subscription fails.
type ChangeSource interface {
	Subscribe(ctx context.Context, prefixes ...string) (<-chan Change, error)
}

// Clock abstracts time so expiry can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

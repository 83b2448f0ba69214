package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// Coordinator routes store changes and clock ticks to the services. It is
// driven by a single event loop, so handlers never run concurrently.
type Coordinator struct {
	lifecycle    *LifecycleService
	live         *LiveViewService
	registration *RegistrationService
	log          zerolog.Logger
}

var _ ports.EventHandler = (*Coordinator)(nil)

// NewCoordinator returns a Coordinator.
func NewCoordinator(lifecycle *LifecycleService, live *LiveViewService, registration *RegistrationService, log zerolog.Logger) *Coordinator {
	return &Coordinator{lifecycle: lifecycle, live: live, registration: registration, log: log}
}

// WatchedPrefixes are the store paths the coordinator subscribes to.
func WatchedPrefixes() []string {
	return []string{
		ports.PathUsers,
		ports.PathSessions,
		ports.PathVotes,
		ports.PathConfig,
		ports.PathNewUser,
	}
}

// HandleChange reacts to one store change.
func (c *Coordinator) HandleChange(ctx context.Context, ch ports.Change) error {
	switch ch.Root() {
	case ports.PathNewUser:
		return c.registration.HandleScan(ctx)
	case ports.PathMode:
		return nil
	case ports.PathVotes:
		segs := ch.Segments()
		if len(segs) > 1 {
			if watched := c.live.SessionID(); watched != "" && segs[1] != watched {
				metrics.LateVotesTotal.Inc()
				c.log.Warn().Str("session_id", segs[1]).Str("watching", watched).
					Msg("vote written for a session that is not being shown")
				return nil
			}
		}
	case ports.PathConfig:
		// an external stop or start moves the pointer; let the lifecycle notice
		if err := c.lifecycle.Tick(ctx); err != nil {
			c.log.Warn().Err(err).Msg("lifecycle check after config change failed")
		}
	}
	return c.live.Refresh(ctx)
}

// Tick advances the countdown and closes expired sessions. A stop triggers a
// full refresh so the dashboard shows the final results.
func (c *Coordinator) Tick(ctx context.Context) error {
	wasActive := c.live.Snapshot().Active
	if err := c.lifecycle.Tick(ctx); err != nil {
		return fmt.Errorf("lifecycle tick: %w", err)
	}

	st, err := c.lifecycle.Status(ctx)
	if err != nil {
		return fmt.Errorf("lifecycle tick: %w", err)
	}
	if st.Active != wasActive || (st.Active && st.SessionID != c.live.SessionID()) {
		return c.live.Refresh(ctx)
	}
	c.live.Tick()
	return nil
}

package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

const (
	defaultTickInterval = time.Second
	resubscribeInitial  = 500 * time.Millisecond
	channelBuffer       = 256
	tickRoot            = "tick"
)

// resyncChange is handled after the buffer overflowed. Handlers re-read full
// snapshots, so one config change is enough to catch up.
var resyncChange = ports.Change{Path: ports.PathConfig, Op: "resync"}

// Dispatcher feeds store changes and clock ticks to a single handler, one at a
// time, in arrival order. Nothing else may mutate session state concurrently.
type Dispatcher struct {
	events   chan ports.Change
	handler  ports.EventHandler
	interval time.Duration
	overflow atomic.Bool
	log      zerolog.Logger

	resubscribeAfter time.Duration
}

// NewDispatcher creates a Dispatcher. If tickInterval <= 0, one second is used.
func NewDispatcher(tickInterval time.Duration, handler ports.EventHandler, log zerolog.Logger) *Dispatcher {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	return &Dispatcher{
		events:   make(chan ports.Change, channelBuffer),
		handler:  handler,
		interval: tickInterval,
		log:      log,

		resubscribeAfter: resubscribeInitial,
	}
}

// Start launches the loop goroutine. It stops when ctx is cancelled; the
// returned channel is closed once it has.
func (d *Dispatcher) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	return done
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		case ch := <-d.events:
			metrics.EventsQueueDepth.Set(float64(len(d.events)))
			d.handle(ctx, ch)
			if len(d.events) == 0 && d.overflow.CompareAndSwap(true, false) {
				d.log.Warn().Msg("change buffer overflowed, resyncing")
				d.handle(ctx, resyncChange)
			}
		}
	}
}

// Enqueue queues a change without blocking. When the buffer is full the change
// is dropped and a resync is scheduled instead.
func (d *Dispatcher) Enqueue(ch ports.Change) {
	select {
	case d.events <- ch:
		metrics.EventsQueueDepth.Set(float64(len(d.events)))
	default:
		d.overflow.Store(true)
	}
}

// Pump forwards a subscription into the loop until src closes or ctx ends.
func (d *Dispatcher) Pump(ctx context.Context, src <-chan ports.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-src:
			if !ok {
				d.log.Warn().Msg("change subscription closed")
				return
			}
			d.Enqueue(ch)
		}
	}
}

// Watch keeps a subscription to src open until ctx ends, resubscribing with
// backoff whenever it drops. Every fresh subscription is followed by a resync
// because changes made while disconnected were never delivered.
func (d *Dispatcher) Watch(ctx context.Context, src ports.ChangeSource, prefixes ...string) {
	for ctx.Err() == nil {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = d.resubscribeAfter

		changes, err := backoff.Retry(ctx, func() (<-chan ports.Change, error) {
			return src.Subscribe(ctx, prefixes...)
		},
			backoff.WithBackOff(b),
			backoff.WithMaxElapsedTime(0),
			backoff.WithNotify(func(err error, next time.Duration) {
				d.log.Warn().Err(err).Dur("retry_in", next).Msg("store subscription failed, retrying")
			}),
		)
		if err != nil {
			if ctx.Err() == nil {
				d.log.Error().Err(err).Msg("store subscription abandoned")
			}
			return
		}

		d.Enqueue(resyncChange)
		d.Pump(ctx, changes)
	}
}

func (d *Dispatcher) handle(ctx context.Context, ch ports.Change) {
	root := ch.Root()
	start := time.Now()
	err := d.handler.HandleChange(ctx, ch)
	metrics.EventProcessingDuration.WithLabelValues(root).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EventsErrorsTotal.WithLabelValues(root).Inc()
		d.log.Error().Err(err).Str("path", ch.Path).Msg("change handling failed")
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	start := time.Now()
	err := d.handler.Tick(ctx)
	metrics.EventProcessingDuration.WithLabelValues(tickRoot).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EventsErrorsTotal.WithLabelValues(tickRoot).Inc()
		d.log.Error().Err(err).Msg("tick failed")
	}
}

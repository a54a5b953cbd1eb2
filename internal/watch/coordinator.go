package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// State is the coordinator's rebuild phase.
type State int

const (
	// StateIdle means no pending changes.
	StateIdle State = iota
	// StateDebouncing means changes arrived and the quiet period is running.
	StateDebouncing
	// StateBuilding means a generation is in flight.
	StateBuilding
	// StateSleeping is the pause after a generation before new changes count.
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateBuilding:
		return "building"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Coordinator coalesces change events into generations. Each burst of events
// is followed by one build once the quiet period passes; events arriving
// while a build runs start a fresh debounce afterwards. A failed build is
// not retried until new changes arrive.
type Coordinator struct {
	// Debounce is the quiet period after the last event before building.
	Debounce time.Duration
	// Sleep is the pause after a build completes.
	Sleep time.Duration
	// Build runs one generation.
	Build func(ctx context.Context) error
	// Events is the change stream, typically Watcher.Events().
	Events   <-chan Event
	Logger   *slog.Logger
	Recorder metrics.Recorder

	mu      sync.RWMutex
	state   State
	kicks   chan string
	kickSet sync.Once
}

// State reports the current phase.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Kick requests a build as if a change event had arrived. Used by the
// periodic full-rebuild schedule.
func (c *Coordinator) Kick(reason string) {
	c.kickSet.Do(func() { c.kicks = make(chan string, 1) })
	select {
	case c.kicks <- reason:
	default:
	}
}

// Run processes events until the context ends or the event channel closes.
func (c *Coordinator) Run(ctx context.Context) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := c.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	c.kickSet.Do(func() { c.kicks = make(chan string, 1) })

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	var timerC <-chan time.Time

	pending := 0
	c.setState(StateIdle)

	startDebounce := func() {
		pending++
		stopTimer(timer)
		timer.Reset(c.Debounce)
		timerC = timer.C
		c.setState(StateDebouncing)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-c.Events:
			if !ok {
				return nil
			}
			logger.Debug("change observed", "path", ev.Path, "op", ev.Op)
			startDebounce()

		case reason := <-c.kicks:
			logger.Info("build requested", "reason", reason)
			startDebounce()

		case <-timerC:
			timerC = nil
			recorder.IncDebounceFlush()
			logger.Info("quiet period ended; building", "events", pending)
			pending = 0

			c.setState(StateBuilding)
			if err := c.Build(ctx); err != nil {
				logger.Error("generation failed; waiting for further changes", "error", err)
			}
			if ctx.Err() != nil {
				return nil
			}

			// The pause lets a burst land completely before the next
			// debounce starts; events queue up meanwhile.
			c.setState(StateSleeping)
			if !c.sleep(ctx) {
				return nil
			}

			if c.drainPending() {
				startDebounce()
			} else {
				c.setState(StateIdle)
			}
		}
	}
}

// sleep waits out the post-build pause. Returns false when the context ended.
func (c *Coordinator) sleep(ctx context.Context) bool {
	if c.Sleep <= 0 {
		return true
	}
	deadline := time.NewTimer(c.Sleep)
	defer stopTimer(deadline)
	select {
	case <-ctx.Done():
		return false
	case <-deadline.C:
		return true
	}
}

// drainPending reports whether changes queued up while building.
func (c *Coordinator) drainPending() bool {
	found := false
	for {
		select {
		case _, ok := <-c.Events:
			if !ok {
				return found
			}
			found = true
		case <-c.kicks:
			found = true
		default:
			return found
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

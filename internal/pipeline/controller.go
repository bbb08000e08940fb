package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-outlook/internal/domain"
	"github.com/couchcryptid/rainfall-outlook/internal/observability"
)

// Searcher runs one search end to end.
type Searcher interface {
	Run(ctx context.Context, query string) (domain.ForecastViewModel, error)
}

// TriggerPolicy decides what starts a run.
type TriggerPolicy int

const (
	// TriggerOnSubmit starts a run only on an explicit Submit.
	TriggerOnSubmit TriggerPolicy = iota
	// TriggerOnChange also starts a run when the query text changes, after
	// an optional debounce.
	TriggerOnChange
)

// ParseTriggerPolicy maps the TRIGGER_MODE values onto a policy.
func ParseTriggerPolicy(s string) (TriggerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "submit":
		return TriggerOnSubmit, nil
	case "change":
		return TriggerOnChange, nil
	}
	return TriggerOnSubmit, fmt.Errorf("unknown trigger mode %q", s)
}

func (p TriggerPolicy) String() string {
	if p == TriggerOnChange {
		return "change"
	}
	return "submit"
}

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("controller closed")

// Options tune the Controller.
type Options struct {
	Trigger    TriggerPolicy
	Debounce   time.Duration   // TriggerOnChange only; zero starts immediately
	RunTimeout time.Duration   // zero means no per-run deadline
	Clock      clockwork.Clock // real clock when nil
}

// Controller owns the request lifecycle of one search session. It publishes
// Idle, then Loading and a terminal state for every run. Starting a run
// cancels the previous one, and a result is only published when it belongs
// to the most recently started run.
type Controller struct {
	searcher Searcher
	opts     Options
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	state      domain.RequestState
	run        uint64
	cancelRun  context.CancelFunc
	pending    clockwork.Timer
	pendingSeq uint64
	observers  []func(domain.RequestState)
	closed     bool

	// Published states wait in outbox until a single dispatcher hands them
	// to observers outside mu.
	outbox      []domain.RequestState
	dispatching bool
	drained     *sync.Cond

	// inflight counts started runs and the scheduled one, if any.
	inflight sync.WaitGroup
	ready    atomic.Bool
}

// NewController creates a Controller in the Idle state.
func NewController(searcher Searcher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Controller{
		searcher: searcher,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		state:    domain.IdleState(),
	}
	c.drained = sync.NewCond(&c.mu)
	metrics.SetPhase(string(domain.PhaseIdle))
	return c
}

// Subscribe registers fn to receive every published state, in order. fn runs
// without the controller lock held, so it may read State. A slow fn delays
// later deliveries but never Submit or QueryChanged. fn must not call Wait
// or Close.
func (c *Controller) Subscribe(fn func(domain.RequestState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns the most recently published state.
func (c *Controller) State() domain.RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit starts a run for query. A blank query returns a KindEmptyQuery
// error and leaves the state untouched.
func (c *Controller) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.NewError(domain.KindEmptyQuery, "", nil)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopPendingLocked()
	c.startLocked(ctx, query)
	c.mu.Unlock()

	c.deliver()
	return nil
}

// QueryChanged reports an edit of the query text. Under TriggerOnChange it
// schedules a run after the debounce, replacing any earlier scheduled one.
// A blank query only cancels what is scheduled. Under TriggerOnSubmit it
// does nothing.
func (c *Controller) QueryChanged(ctx context.Context, query string) {
	if c.opts.Trigger != TriggerOnChange {
		return
	}
	query = strings.TrimSpace(query)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	switch {
	case query == "":
	case c.opts.Debounce <= 0:
		c.startLocked(ctx, query)
	default:
		seq := c.pendingSeq
		c.inflight.Add(1)
		c.pending = c.clock.AfterFunc(c.opts.Debounce, func() {
			c.firePending(ctx, seq, query)
		})
	}
	c.mu.Unlock()

	c.deliver()
}

// Wait blocks until the scheduled run has started, every started run has
// returned and observers have seen every published state.
func (c *Controller) Wait() {
	c.inflight.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.dispatching || len(c.outbox) > 0 {
		c.drained.Wait()
	}
}

// Close cancels the in-flight run and any scheduled one, then waits for
// observers to see what was already published. No state is published
// afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopPendingLocked()
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	// Bumping the counter turns every outstanding run stale.
	c.run++
	c.mu.Unlock()

	c.Wait()
}

// CheckReadiness returns nil once at least one run has reached a terminal
// state.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no search has completed yet")
	}
	return nil
}

// firePending releases the scheduled slot in inflight only after the run it
// starts has been added, so Wait never sees the counter drop to zero between
// the two.
func (c *Controller) firePending(ctx context.Context, seq uint64, query string) {
	defer c.inflight.Done()

	c.mu.Lock()
	if c.closed || seq != c.pendingSeq || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.startLocked(ctx, query)
	c.mu.Unlock()

	c.deliver()
}

// stopPendingLocked drops the scheduled run, if any. The sequence bump also
// invalidates a timer that fired but has not taken the lock yet; that
// callback releases its own inflight slot.
func (c *Controller) stopPendingLocked() {
	if c.pending != nil {
		if c.pending.Stop() {
			c.inflight.Done()
		}
		c.pending = nil
	}
	c.pendingSeq++
}

func (c *Controller) startLocked(ctx context.Context, query string) {
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.run++
	run := c.run

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if c.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	c.cancelRun = cancel

	c.metrics.RunsStarted.Inc()
	c.logger.Info("search started", "run", run, "query", query)
	c.publishLocked(domain.LoadingState(run, query, c.clock.Now()))

	c.inflight.Add(1)
	go c.execute(runCtx, cancel, run, query)
}

func (c *Controller) execute(ctx context.Context, cancel context.CancelFunc, run uint64, query string) {
	defer c.inflight.Done()
	defer c.deliver()
	defer cancel()

	start := c.clock.Now()
	vm, err := c.searcher.Run(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if run != c.run {
		c.metrics.RunOutcomes.WithLabelValues("superseded").Inc()
		c.logger.Debug("discarding superseded run", "run", run, "latest", c.run, "query", query)
		return
	}
	c.cancelRun = nil
	c.metrics.RunDuration.Observe(c.clock.Since(start).Seconds())
	c.ready.Store(true)

	if err != nil {
		failure := *domain.AsError(err)
		if failure.Query == "" {
			failure.Query = query
		}
		c.metrics.RunOutcomes.WithLabelValues("failed").Inc()
		c.logger.Warn("search failed",
			"run", run,
			"query", query,
			"kind", failure.Kind,
			"leg", failure.Leg,
			"error", failure.Detail(),
		)
		c.publishLocked(domain.FailedState(run, query, &failure, c.clock.Now()))
		return
	}

	c.metrics.RunOutcomes.WithLabelValues("ready").Inc()
	c.logger.Info("search ready", "run", run, "query", query, "days", len(vm.Precipitation))
	c.publishLocked(domain.ReadyState(run, query, vm, c.clock.Now()))
}

func (c *Controller) publishLocked(s domain.RequestState) {
	c.state = s
	c.metrics.SetPhase(string(s.Phase()))
	c.outbox = append(c.outbox, s)
}

// deliver drains outbox to the observers. Only one goroutine dispatches at a
// time; any other caller returns at once and leaves its states to it.
func (c *Controller) deliver() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	for len(c.outbox) > 0 {
		batch, observers := c.outbox, c.observers
		c.outbox = nil
		c.mu.Unlock()

		for _, s := range batch {
			for _, fn := range observers {
				fn(s)
			}
		}

		c.mu.Lock()
	}
	c.dispatching = false
	c.drained.Broadcast()
	c.mu.Unlock()
}

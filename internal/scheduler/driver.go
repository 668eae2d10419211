package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Default cadences
const (
	DefaultReminderInterval = time.Minute
	DefaultArchivalInterval = 10 * time.Minute
)

// ErrAlreadyStarted is returned by Start on a running driver.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Sweeper is one kind of sweep the driver can run.
type Sweeper interface {
	Kind() Kind
	Run(ctx context.Context, now time.Time) *Result
}

// Trigger pairs a sweeper with its cadence.
type Trigger struct {
	Sweeper  Sweeper
	Interval time.Duration
}

// State of a trigger.
type State string

// Trigger states
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// TriggerStats is a snapshot of one trigger, reported by Driver.Stats.
type TriggerStats struct {
	Kind       Kind       `json:"kind"`
	Interval   string     `json:"interval"`
	State      State      `json:"state"`
	Runs       int64      `json:"runs"`
	Skipped    int64      `json:"skipped"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastResult *Summary   `json:"last_result,omitempty"`
}

type trigger struct {
	sweeper  Sweeper
	interval time.Duration

	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64

	mu         sync.Mutex
	lastRunAt  *time.Time
	lastResult *Summary
}

// Driver runs each trigger's sweep on its own ticker. A tick that arrives
// while the previous sweep of the same kind is still running is skipped and
// counted. Different kinds never wait for each other.
type Driver struct {
	clock    Clock
	triggers []*trigger
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
}

// NewDriver creates a Driver for the given triggers. A nil clock means the
// real clock.
func NewDriver(clock Clock, logger *slog.Logger, triggers ...Trigger) *Driver {
	if clock == nil {
		clock = RealClock()
	}

	d := &Driver{
		clock:  clock,
		logger: logger.With(slog.String("component", "scheduler")),
	}
	for _, t := range triggers {
		interval := t.Interval
		if interval <= 0 {
			interval = defaultInterval(t.Sweeper.Kind())
		}
		d.triggers = append(d.triggers, &trigger{sweeper: t.Sweeper, interval: interval})
	}
	return d
}

func defaultInterval(kind Kind) time.Duration {
	if kind == KindArchival {
		return DefaultArchivalInterval
	}
	return DefaultReminderInterval
}

// Start creates the tickers and begins listening for ticks. The first sweep
// of each kind runs on its first tick, not immediately. Sweeps run on a
// context derived from ctx without its cancellation; use Stop to end them.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	wg := &sync.WaitGroup{}
	d.cancel = cancel
	d.wg = wg
	d.started = true

	for _, t := range d.triggers {
		ticker := d.clock.NewTicker(t.interval)
		wg.Add(1)
		go d.loop(runCtx, t, ticker, wg)

		d.logger.Info("scheduler trigger started",
			slog.String("kind", string(t.sweeper.Kind())),
			slog.Duration("interval", t.interval))
	}
	return nil
}

// Stop stops the tickers, cancels running sweeps and waits for them to
// return. Tasks a sweep already started finish their work; tasks it had not
// started are left for a later sweep. Stop returns ctx.Err() if ctx ends
// before the sweeps do. Calling Stop on a stopped driver is a no-op.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = false
	d.cancel()
	wg := d.wg
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("scheduler stop timed out with sweeps still running")
		return ctx.Err()
	}
}

// Stats returns a snapshot of every trigger.
func (d *Driver) Stats() []TriggerStats {
	stats := make([]TriggerStats, 0, len(d.triggers))
	for _, t := range d.triggers {
		state := StateIdle
		if t.running.Load() {
			state = StateRunning
		}

		t.mu.Lock()
		s := TriggerStats{
			Kind:       t.sweeper.Kind(),
			Interval:   t.interval.String(),
			State:      state,
			Runs:       t.runs.Load(),
			Skipped:    t.skipped.Load(),
			LastRunAt:  t.lastRunAt,
			LastResult: t.lastResult,
		}
		t.mu.Unlock()

		stats = append(stats, s)
	}
	return stats
}

// loop owns ticker and reports to the wait group of the Start that created
// it, so a loop left over from a timed out Stop never touches the state of a
// later Start.
func (d *Driver) loop(ctx context.Context, t *trigger, ticker Ticker, wg *sync.WaitGroup) {
	defer wg.Done()
	defer ticker.Stop()

	log := d.logger.With(slog.String("kind", string(t.sweeper.Kind())))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			if !t.running.CompareAndSwap(false, true) {
				t.skipped.Add(1)
				log.Warn("previous sweep still running, skipping tick")
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer t.running.Store(false)
				d.runSweep(ctx, t, now)
			}()
		}
	}
}

func (d *Driver) runSweep(ctx context.Context, t *trigger, now time.Time) {
	result := t.sweeper.Run(ctx, now)
	t.runs.Add(1)

	summary := result.Summary()
	t.mu.Lock()
	t.lastRunAt = &now
	t.lastResult = &summary
	t.mu.Unlock()
}

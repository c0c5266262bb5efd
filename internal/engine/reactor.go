package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uber-go/tally/v4"

	"github.com/roach88/h2o/internal/config"
	"github.com/roach88/h2o/internal/ir"
)

// Reactor owns the shared context of one simulation run: state, locks,
// semaphores and the logger. It spawns one goroutine per atom.
//
// A Reactor runs once.
type Reactor struct {
	cfg   config.Config
	runID string

	state     *SharedState
	oxygenQ   *WaitQueue
	hydrogenQ *WaitQueue
	seq       *Sequencer
	barrier   *BondBarrier
	bondReady *Semaphore
	formed    *notification
	drain     *ShutdownCoordinator
	log       *Logger

	delay   DelayFunc
	logger  *slog.Logger
	metrics *metrics
	sinks   []Sink
	spawn   func(func()) error

	ran atomic.Bool
}

// Option configures a Reactor.
type Option func(*Reactor)

// WithSinks adds event sinks. Sinks are closed when the run ends.
func WithSinks(sinks ...Sink) Option {
	return func(r *Reactor) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithDelay replaces the random delay source.
func WithDelay(fn DelayFunc) Option {
	return func(r *Reactor) {
		r.delay = fn
	}
}

// WithLogger sets the diagnostic logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Reactor) {
		r.logger = l
	}
}

// WithMetrics reports counters and the run latency on scope.
func WithMetrics(scope tally.Scope) Option {
	return func(r *Reactor) {
		r.metrics = newMetrics(scope)
	}
}

// WithRunID sets the run id (default: a UUIDv7).
func WithRunID(id string) Option {
	return func(r *Reactor) {
		r.runID = id
	}
}

// WithSpawner replaces `go fn()` as the way actors are started. A spawner
// error aborts the run; atoms already started are cancelled.
func WithSpawner(spawn func(func()) error) Option {
	return func(r *Reactor) {
		r.spawn = spawn
	}
}

// MaxAtoms bounds the pool of each species. Every atom is a goroutine
// and holds a slot in its species' wait queue.
const MaxAtoms = 1 << 20

// ErrPoolTooLarge is the cause of the resource error for a pool beyond
// MaxAtoms.
var ErrPoolTooLarge = errors.New("pool too large")

// CheckPool reports a resource error if either species exceeds MaxAtoms.
func CheckPool(cfg config.Config) error {
	pools := []struct {
		species ir.Species
		n       int
	}{
		{ir.Oxygen, cfg.Oxygen},
		{ir.Hydrogen, cfg.Hydrogen},
	}
	for _, p := range pools {
		if p.n > MaxAtoms {
			return NewResourceError(
				fmt.Sprintf("cannot allocate %d %s atoms (limit %d)", p.n, p.species, MaxAtoms),
				ErrPoolTooLarge,
			)
		}
	}
	return nil
}

// New validates cfg and builds the shared context of a run. A pool beyond
// MaxAtoms fails with RESOURCE_UNAVAILABLE before anything is allocated.
func New(cfg config.Config, opts ...Option) (*Reactor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := CheckPool(cfg); err != nil {
		return nil, err
	}

	r := &Reactor{
		cfg:   cfg,
		delay: RandomDelay,
		spawn: func(fn func()) error {
			go fn()
			return nil
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = newMetrics(nil)
	}
	if r.runID == "" {
		r.runID = UUIDv7Generator{}.Generate()
	}
	r.logger = r.logger.With("run", r.runID)

	oxygen, hydrogen := int64(cfg.Oxygen), int64(cfg.Hydrogen)
	r.state = NewSharedState(oxygen, hydrogen)
	r.oxygenQ = NewWaitQueue("oxygen", cfg.Oxygen)
	r.hydrogenQ = NewWaitQueue("hydrogen", cfg.Hydrogen)
	r.seq = NewSequencer(r.state, r.oxygenQ, r.hydrogenQ, r.logger, r.metrics)
	r.barrier = NewBondBarrier()
	r.bondReady = NewSemaphore("bond-ready", 2, 0)
	r.formed = newNotification()
	r.drain = NewShutdownCoordinator(r.state, r.oxygenQ, r.hydrogenQ, oxygen, hydrogen, r.logger, r.metrics)
	r.log = NewLogger(r.state.Actions(), r.sinks...)
	return r, nil
}

// RunID returns the id of this run.
func (r *Reactor) RunID() string {
	return r.runID
}

// State exposes the shared state, mainly for inspection in tests.
func (r *Reactor) State() *SharedState {
	return r.state
}

// Report describes a finished run.
type Report struct {
	RunID    string        `json:"run_id"`
	Config   config.Config `json:"config"`
	Summary  ir.Summary    `json:"summary"`
	Drained  DrainResult   `json:"drained"`
	State    StateSnapshot `json:"state"`
	Duration time.Duration `json:"duration"`
}

// Run spawns every atom, waits until all achievable molecules are formed,
// drains the surplus atoms and waits for every actor to exit.
//
// The first actor failure cancels the rest of the run, so no actor is left
// parked on a semaphore; the failure is returned. Sinks are closed before
// Run returns.
func (r *Reactor) Run(ctx context.Context) (Report, error) {
	if !r.ran.CompareAndSwap(false, true) {
		return Report{}, errors.New("reactor already ran")
	}
	start := time.Now()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r.logger.Info("run starting",
		"oxygen", r.cfg.Oxygen,
		"hydrogen", r.cfg.Hydrogen,
		"max_molecules", r.state.MaxMolecules(),
	)

	var wg sync.WaitGroup
	spawnErr := r.spawnAll(ctx, &wg, cancel)

	var drained DrainResult
	if spawnErr == nil && r.awaitFormed(ctx) == nil {
		var err error
		drained, err = r.drain.Drain(ctx)
		if err != nil {
			cancel(err)
		}
	}

	wg.Wait()
	closeErr := r.log.Close()
	duration := time.Since(start)
	r.metrics.runLatency.Record(duration)

	report := Report{
		RunID:    r.runID,
		Config:   r.cfg,
		Summary:  r.summary(),
		Drained:  drained,
		Duration: duration,
	}

	if cause := context.Cause(ctx); cause != nil {
		err := cause
		if spawnErr != nil {
			err = spawnErr
		} else if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
			err = NewCancelledError(cause)
		}
		r.logger.Error("run failed", "error", err)
		return report, errors.Join(err, closeErr)
	}
	if closeErr != nil {
		return report, closeErr
	}

	snap, err := r.state.Snapshot(context.Background())
	if err != nil {
		return report, fmt.Errorf("snapshot state: %w", err)
	}
	report.State = snap

	r.logger.Info("run finished",
		"molecules", report.Summary.Molecules,
		"lines", report.Summary.Lines,
		"duration", duration,
	)
	return report, nil
}

// spawnAll starts the oxygens, then the hydrogens. On a spawn failure the
// run context is cancelled so already started atoms unwind.
func (r *Reactor) spawnAll(ctx context.Context, wg *sync.WaitGroup, cancel context.CancelCauseFunc) error {
	species := make([]ir.Species, 0, r.cfg.Oxygen+r.cfg.Hydrogen)
	for range r.cfg.Oxygen {
		species = append(species, ir.Oxygen)
	}
	for range r.cfg.Hydrogen {
		species = append(species, ir.Hydrogen)
	}

	for _, sp := range species {
		wg.Add(1)
		err := r.spawn(func() {
			defer wg.Done()
			if err := r.atom(ctx, sp); err != nil {
				cancel(err)
			}
		})
		if err != nil {
			wg.Done()
			spawnErr := NewSpawnError(sp, err)
			cancel(spawnErr)
			return spawnErr
		}
	}
	return nil
}

// awaitFormed blocks until the last achievable molecule left the barrier.
func (r *Reactor) awaitFormed(ctx context.Context) error {
	if r.state.MaxMolecules() == 0 {
		return nil
	}
	select {
	case <-r.formed.done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reactor) summary() ir.Summary {
	s := r.log.Stats()
	s.Oxygen = int64(r.cfg.Oxygen)
	s.Hydrogen = int64(r.cfg.Hydrogen)
	s.MaxMolecules = r.state.MaxMolecules()
	return s
}

// notification is a one-shot broadcast.
type notification struct {
	once sync.Once
	ch   chan struct{}
}

func newNotification() *notification {
	return &notification{ch: make(chan struct{})}
}

func (n *notification) fire() {
	n.once.Do(func() { close(n.ch) })
}

func (n *notification) done() <-chan struct{} {
	return n.ch
}

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-now/internal/geolocation"
	"github.com/i474232898/weather-now/internal/notify"
	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

const (
	// DefaultInterval is the poll period used when none is configured.
	DefaultInterval = 10 * time.Minute

	unavailableAdvisory = "Geolocation is not available. Showing weather for the default location (%g, %g)."
	fallbackAdvisory    = "Location access is unavailable. Showing weather for the default location (%g, %g)."
)

// DefaultFallback is used when no position can be acquired.
var DefaultFallback = weather.Coordinate{Lat: 28.67, Lon: 77.22}

// Phase is the lifecycle state of a Poller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseActive
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Refresher runs one fetch cycle for a coordinate.
type Refresher interface {
	Refresh(ctx context.Context, coord weather.Coordinate) weather.DisplayState
}

// Config controls polling behaviour.
type Config struct {
	Interval      time.Duration
	LocateTimeout time.Duration
	Fallback      weather.Coordinate
}

// Poller acquires a location once per Start and then keeps the display state
// fresh by re-running the fetch cycle for that location on a fixed interval.
type Poller struct {
	refresher Refresher
	locator   geolocation.Locator
	notifier  notify.Notifier
	cfg       Config
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu    sync.Mutex // guards phase and run
	phase Phase
	run   *run

	advised atomic.Bool

	coord atomic.Pointer[weather.Coordinate]
	state atomic.Pointer[weather.DisplayState]
}

// run is the per-Start state. A fresh one per Start keeps a cycle abandoned
// by Stop from blocking the next Start.
type run struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *gocron.Scheduler
	inFlight  atomic.Bool
}

// New creates a Poller. locator may be nil when the host has no location
// source; the fallback coordinate is then always used.
func New(refresher Refresher, locator geolocation.Locator, notifier notify.Notifier, cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	p := &Poller{
		refresher: refresher,
		locator:   locator,
		notifier:  notifier,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
	p.publish(weather.Loading())
	return p
}

// Start acquires the location, runs the first cycle synchronously and then
// schedules the periodic job. It is a no-op while starting or active. The
// lock is not held while locating or fetching, so a concurrent Stop aborts
// the pending start instead of waiting for it.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.phase == PhaseStarting || p.phase == PhaseActive {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{ctx: runCtx, cancel: cancel}
	p.run = r
	p.phase = PhaseStarting
	p.publish(weather.Loading())
	p.mu.Unlock()

	coord, err := p.acquire(runCtx)
	if err == nil {
		p.coord.Store(&coord)
		p.runCycle(r, coord)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.run != r {
		p.logger.Info("poller stopped before start completed")
		return nil
	}
	if err := runCtx.Err(); err != nil {
		p.abort()
		return fmt.Errorf("start poller: %w", err)
	}

	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(p.cfg.Interval).WaitForSchedule().Do(func() {
		p.tick(r)
	}); err != nil {
		p.abort()
		return fmt.Errorf("schedule poll job: %w", err)
	}
	s.StartAsync()
	r.scheduler = s

	p.phase = PhaseActive
	p.metrics.PollerActive.Set(1)
	p.logger.Info("poller started", "interval", p.cfg.Interval, "coordinate", coord.String())
	return nil
}

// Stop cancels the schedule and abandons any in-flight cycle, including a
// Start that is still locating or fetching. It is safe to call before Start
// and more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != PhaseStarting && p.phase != PhaseActive {
		return
	}

	if p.run.scheduler != nil {
		p.run.scheduler.Stop()
	}
	p.abort()
	p.logger.Info("poller stopped")
}

// abort tears down the current run. Callers hold p.mu.
func (p *Poller) abort() {
	p.run.cancel()
	p.run = nil
	p.phase = PhaseStopped
	p.metrics.PollerActive.Set(0)
}

// State returns the current display state.
func (p *Poller) State() weather.DisplayState {
	return *p.state.Load()
}

// Coordinate returns the last known coordinate, if any has been acquired.
func (p *Poller) Coordinate() (weather.Coordinate, bool) {
	c := p.coord.Load()
	if c == nil {
		return weather.Coordinate{}, false
	}
	return *c, true
}

func (p *Poller) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// acquire returns the located coordinate, or the fallback after issuing the
// one-time advisory. It fails only when ctx itself ends, in which case no
// fallback is recorded.
func (p *Poller) acquire(ctx context.Context) (weather.Coordinate, error) {
	if p.locator == nil {
		p.fallback(geolocation.ErrUnavailable, unavailableAdvisory)
		return p.cfg.Fallback, nil
	}

	locateCtx := ctx
	if p.cfg.LocateTimeout > 0 {
		var cancel context.CancelFunc
		locateCtx, cancel = context.WithTimeout(ctx, p.cfg.LocateTimeout)
		defer cancel()
	}

	coord, err := p.locator.Locate(locateCtx)
	if err != nil {
		if ctx.Err() != nil {
			return weather.Coordinate{}, ctx.Err()
		}
		p.fallback(err, fallbackAdvisory)
		return p.cfg.Fallback, nil
	}
	p.logger.Info("location acquired", "coordinate", coord.String())
	return coord, nil
}

func (p *Poller) fallback(err error, advisory string) {
	reason := geolocation.Reason(err)
	p.metrics.LocationFallbacks.WithLabelValues(reason).Inc()
	p.logger.Warn("using fallback location",
		"reason", reason,
		"error", err,
		"coordinate", p.cfg.Fallback.String(),
	)

	if !p.advised.CompareAndSwap(false, true) {
		return
	}
	p.notifier.Notify(fmt.Sprintf(advisory, p.cfg.Fallback.Lat, p.cfg.Fallback.Lon))
}

func (p *Poller) tick(r *run) {
	if r.ctx.Err() != nil {
		return
	}
	coord := p.coord.Load()
	if coord == nil {
		return
	}
	p.runCycle(r, *coord)
}

// runCycle refreshes and publishes, unless another cycle of the same run is
// still in flight. Results of cancelled cycles are discarded.
func (p *Poller) runCycle(r *run, coord weather.Coordinate) bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		p.metrics.TicksSkipped.Inc()
		p.logger.Warn("previous cycle still in flight, skipping tick")
		return false
	}
	defer r.inFlight.Store(false)

	state := p.refresher.Refresh(r.ctx, coord)
	if r.ctx.Err() != nil {
		p.logger.Debug("discarding result of cancelled cycle")
		return false
	}
	p.publish(state)
	return true
}

func (p *Poller) publish(s weather.DisplayState) {
	p.state.Store(&s)
}

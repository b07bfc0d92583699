package autosave

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaolacci/murmur3"
	"golang.org/x/time/rate"
)

// Scheduler defaults.
const (
	DefaultDebounce = time.Second
	DefaultInterval = 30 * time.Second

	// writeTimeout bounds a write started by a timer rather than a caller.
	writeTimeout = 10 * time.Second
)

// Writer persists one scene state. *Store implements it.
type Writer interface {
	Save(ctx context.Context, sceneJSON string) Result
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Debounce is the quiet period after the last change before a write.
	Debounce time.Duration

	// Interval is the periodic write cadence while changes are pending.
	Interval time.Duration

	// WritesPerSecond throttles timer-driven writes. Throttled writes are
	// deferred, never dropped. Zero disables throttling.
	WritesPerSecond float64

	// Burst is the limiter bucket size. Default: 1
	Burst int
}

// DefaultSchedulerConfig returns a 1s debounce, a 30s interval and at
// most one timer-driven write per second.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Debounce:        DefaultDebounce,
		Interval:        DefaultInterval,
		WritesPerSecond: 1,
		Burst:           1,
	}
}

type flushRequest struct {
	ctx   context.Context
	reply chan Result
}

// Scheduler decides when the auto-save record is written.
//
// OnChange, OnTick, FlushNow and Stop only send messages; the run loop
// owns the pending state, the timers and every call into the Writer, so
// writes never overlap.
type Scheduler struct {
	writer  Writer
	cfg     SchedulerConfig
	logger  *slog.Logger
	limiter *rate.Limiter

	changes chan string
	ticks   chan struct{}
	flushes chan flushRequest
	stop    chan flushRequest
	done    chan struct{}

	// forget is consumed by the run loop before its next write.
	forget atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
	final     Result
}

// NewScheduler creates a scheduler writing through w. Call Start to run it.
func NewScheduler(w Writer, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.WritesPerSecond > 0 {
		limit = rate.Limit(cfg.WritesPerSecond)
	}

	return &Scheduler{
		writer:  w,
		cfg:     cfg,
		logger:  logger.With("component", "autosave-scheduler"),
		limiter: rate.NewLimiter(limit, cfg.Burst),
		changes: make(chan string),
		ticks:   make(chan struct{}),
		flushes: make(chan flushRequest),
		stop:    make(chan flushRequest),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the run loop. Calling it more than once is a no-op.
// OnChange, OnTick and FlushNow block until Start has been called.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// OnChange records sceneJSON as the latest unsaved state and restarts the
// debounce timer. It is dropped after Stop.
func (s *Scheduler) OnChange(sceneJSON string) {
	select {
	case s.changes <- sceneJSON:
	case <-s.done:
	}
}

// OnTick asks for a write of pending changes, as the interval timer does.
func (s *Scheduler) OnTick() {
	select {
	case s.ticks <- struct{}{}:
	case <-s.done:
	}
}

// FlushNow writes pending changes immediately, bypassing the throttle.
// It returns OutcomeSkipped when nothing needed writing.
func (s *Scheduler) FlushNow(ctx context.Context) Result {
	req := flushRequest{ctx: ctx, reply: make(chan Result, 1)}
	select {
	case s.flushes <- req:
	case <-s.done:
		return Result{Outcome: OutcomeSkipped, Reason: ReasonStopped}
	case <-ctx.Done():
		return Result{Outcome: OutcomeError, Err: ctx.Err()}
	}
	select {
	case res := <-req.reply:
		return res
	case <-ctx.Done():
		return Result{Outcome: OutcomeError, Err: ctx.Err()}
	}
}

// Forget drops the fingerprint of the last write, so the next pending
// state is written even when it matches. Call it after the record has been
// deleted outside the scheduler.
func (s *Scheduler) Forget() {
	s.forget.Store(true)
}

// Stop cancels the timers, flushes pending changes and ends the run loop.
// Later calls return the first call's flush result.
func (s *Scheduler) Stop(ctx context.Context) Result {
	s.stopOnce.Do(func() {
		s.Start()
		req := flushRequest{ctx: ctx, reply: make(chan Result, 1)}
		s.stop <- req
		s.final = <-req.reply
		close(s.stopped)
	})
	<-s.stopped
	return s.final
}

// loopState is owned by run.
type loopState struct {
	pending  string
	dirty    bool
	written  bool
	lastHash [2]uint64
}

func (s *Scheduler) run() {
	defer close(s.done)

	var st loopState

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	retry := time.NewTimer(time.Hour)
	retry.Stop()
	defer retry.Stop()

	interval := time.NewTicker(s.cfg.Interval)
	defer interval.Stop()

	throttled := func() {
		if delay, ok := s.reserve(); !ok {
			retry.Reset(delay)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		s.write(ctx, &st)
		cancel()
	}

	for {
		select {
		case scene := <-s.changes:
			st.pending = scene
			st.dirty = true
			debounce.Reset(s.cfg.Debounce)

		case <-debounce.C:
			throttled()

		case <-interval.C:
			throttled()

		case <-retry.C:
			throttled()

		case <-s.ticks:
			throttled()

		case req := <-s.flushes:
			req.reply <- s.write(req.ctx, &st)

		case req := <-s.stop:
			req.reply <- s.write(req.ctx, &st)
			return
		}
	}
}

// reserve takes a limiter token. When none is available it reports how
// long to wait and gives the reservation back.
func (s *Scheduler) reserve() (time.Duration, bool) {
	r := s.limiter.Reserve()
	if !r.OK() {
		return s.cfg.Debounce, false
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return delay, false
	}
	return 0, true
}

// write persists the pending state unless it is clean or identical to the
// last successful write. A failed write leaves the state dirty so the next
// trigger retries it.
func (s *Scheduler) write(ctx context.Context, st *loopState) Result {
	if s.forget.Swap(false) {
		st.written = false
	}
	if !st.dirty {
		return Result{Outcome: OutcomeSkipped}
	}

	h1, h2 := murmur3.Sum128([]byte(st.pending))
	hash := [2]uint64{h1, h2}
	if st.written && hash == st.lastHash {
		st.dirty = false
		return Result{Outcome: OutcomeSkipped}
	}

	res := s.writer.Save(ctx, st.pending)
	if !res.OK() {
		s.logger.Warn("auto-save write failed", "reason", res.Reason, "error", res.Err)
		return res
	}

	st.dirty = false
	st.written = true
	st.lastHash = hash
	return res
}

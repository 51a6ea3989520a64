package foundry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is the delay between two status queries.
const DefaultPollInterval = time.Second

// PollConfig bounds a wait. Zero MaxWait and MaxAttempts mean unbounded.
type PollConfig struct {
	Interval    time.Duration
	MaxWait     time.Duration
	MaxAttempts int
}

func (c PollConfig) validate() error {
	if c.Interval < 0 {
		return configErrorf("poll_interval", "must be non-negative")
	}
	if c.MaxWait < 0 {
		return configErrorf("poll_max_wait", "must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return configErrorf("poll_max_attempts", "must be >= 0")
	}
	return nil
}

func (c PollConfig) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultPollInterval
	}
	return c.Interval
}

// Outcome is how a wait ended.
type Outcome int

const (
	// OutcomeCompleted: the run reached completed.
	OutcomeCompleted Outcome = iota
	// OutcomeFailed: the run reached failed.
	OutcomeFailed
	// OutcomeCancelled: the caller's context ended before a terminal status.
	OutcomeCancelled
	// OutcomeTimedOut: MaxWait or MaxAttempts was exhausted.
	OutcomeTimedOut
	// OutcomeTerminal: any other terminal status, including a remote
	// cancelled or expired run and statuses this package does not know.
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func outcomeFor(status RunStatus) Outcome {
	switch status {
	case RunCompleted:
		return OutcomeCompleted
	case RunFailed:
		return OutcomeFailed
	default:
		return OutcomeTerminal
	}
}

// PollResult is the structured result of Poller.Wait. Run holds the last
// observed record and is zero when no query succeeded.
type PollResult struct {
	Run      Run
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration
}

// Err converts a non-completed outcome into an error wrapping one of
// ErrRunFailed, ErrPollCancelled, ErrPollTimedOut or ErrRunNotCompleted.
func (r PollResult) Err() error {
	switch r.Outcome {
	case OutcomeCompleted:
		return nil
	case OutcomeFailed:
		if r.Run.LastError != nil && r.Run.LastError.Message != "" {
			return fmt.Errorf("run %s: %w: %s: %s", r.Run.ID, ErrRunFailed, r.Run.LastError.Code, r.Run.LastError.Message)
		}
		return fmt.Errorf("run %s: %w", r.Run.ID, ErrRunFailed)
	case OutcomeCancelled:
		return fmt.Errorf("run %s after %d queries: %w", r.Run.ID, r.Attempts, ErrPollCancelled)
	case OutcomeTimedOut:
		return fmt.Errorf("run %s after %d queries in %s: %w", r.Run.ID, r.Attempts, r.Elapsed, ErrPollTimedOut)
	default:
		return fmt.Errorf("run %s ended with status %s: %w", r.Run.ID, r.Run.Status, ErrRunNotCompleted)
	}
}

// RunGetter re-reads a run. RunsAPI and every Service satisfy it.
type RunGetter interface {
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
}

// RunGetterFunc adapts a function to RunGetter.
type RunGetterFunc func(ctx context.Context, threadID, runID string) (Run, error)

func (f RunGetterFunc) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	return f(ctx, threadID, runID)
}

// PollerOption customises a Poller.
type PollerOption func(*Poller)

// WithPollLogger logs one debug line per status query.
func WithPollLogger(logger *zap.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPollMetrics records queries and outcomes.
func WithPollMetrics(m *PollMetrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// WithStatusFunc calls fn after every successful status query, before
// the poller decides whether to keep waiting.
func WithStatusFunc(fn func(run Run, attempt int)) PollerOption {
	return func(p *Poller) { p.onStatus = fn }
}

// WithSleep replaces the wait between queries. The function must return
// ctx.Err() when ctx ends first.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithClock replaces the clock used for Elapsed and MaxWait.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// Poller drives a run to a terminal status by re-reading it at a fixed
// interval. A Poller holds no per-wait state and may be shared.
type Poller struct {
	getter   RunGetter
	cfg      PollConfig
	logger   *zap.Logger
	metrics  *PollMetrics
	onStatus func(run Run, attempt int)
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewPoller returns a Poller reading runs through getter.
func NewPoller(getter RunGetter, cfg PollConfig, opts ...PollerOption) *Poller {
	p := &Poller{
		getter: getter,
		cfg:    cfg,
		logger: zap.NewNop(),
		sleep:  sleepWithContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the bounds the Poller was built with.
func (p *Poller) Config() PollConfig {
	return p.cfg
}

// Wait queries the run, returns on the first terminal status, and
// otherwise sleeps Interval before querying again. Query errors are
// returned as-is and stop polling. Context cancellation and exhausted
// bounds are reported through PollResult.Outcome with a nil error.
func (p *Poller) Wait(ctx context.Context, threadID, runID string) (PollResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if threadID == "" || runID == "" {
		return PollResult{}, fmt.Errorf("threadID and runID are required")
	}

	// waitCtx bounds in-flight queries so a hung call cannot outlive MaxWait.
	waitCtx := ctx
	if p.cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.cfg.MaxWait)
		defer cancel()
	}

	interval := p.cfg.interval()
	start := p.now()
	result := PollResult{}
	log := p.logger.With(zap.String("thread_id", threadID), zap.String("run_id", runID))

	finish := func(outcome Outcome) (PollResult, error) {
		result.Outcome = outcome
		result.Elapsed = p.now().Sub(start)
		p.metrics.observeResult(outcome, result.Elapsed)
		log.Debug("run wait finished",
			zap.Stringer("outcome", outcome),
			zap.Int("attempts", result.Attempts),
			zap.Duration("elapsed", result.Elapsed))
		return result, nil
	}
	// interrupted classifies a context error seen mid-wait.
	interrupted := func() Outcome {
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
		return OutcomeTimedOut
	}

	for {
		if waitCtx.Err() != nil {
			return finish(interrupted())
		}

		run, err := p.getter.GetRun(waitCtx, threadID, runID)
		if err != nil {
			if waitCtx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return finish(interrupted())
			}
			p.metrics.observeError()
			return result, fmt.Errorf("get run %s: %w", runID, err)
		}
		result.Attempts++
		result.Run = run
		p.metrics.observeQuery(run.Status)
		log.Debug("run status", zap.String("status", string(run.Status)), zap.Int("attempt", result.Attempts))
		if p.onStatus != nil {
			p.onStatus(run, result.Attempts)
		}

		if run.Status.IsTerminal() {
			return finish(outcomeFor(run.Status))
		}

		if p.cfg.MaxAttempts > 0 && result.Attempts >= p.cfg.MaxAttempts {
			return finish(OutcomeTimedOut)
		}
		if p.cfg.MaxWait > 0 && p.now().Sub(start)+interval > p.cfg.MaxWait {
			return finish(OutcomeTimedOut)
		}

		if err := p.sleep(waitCtx, interval); err != nil {
			return finish(interrupted())
		}
	}
}

// WaitForRun polls with a one-off Poller.
func WaitForRun(ctx context.Context, getter RunGetter, threadID, runID string, cfg PollConfig) (PollResult, error) {
	return NewPoller(getter, cfg).Wait(ctx, threadID, runID)
}

package foundry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestPollerScenarioQueuedToCompleted(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunQueued, RunInProgress, RunInProgress, RunCompleted}}
	clock := newFakeClock()
	p := NewPoller(runs, PollConfig{Interval: time.Second}, clock.options()...)

	res, err := p.Wait(context.Background(), "thread_1", "run_1")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %s", res.Outcome)
	}
	if res.Run.Status != RunCompleted || res.Run.ID != "run_1" {
		t.Fatalf("unexpected run %+v", res.Run)
	}
	if res.Attempts != 4 || runs.Calls() != 4 {
		t.Fatalf("expected 4 queries, got attempts=%d calls=%d", res.Attempts, runs.Calls())
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 3 {
		t.Fatalf("expected 3 sleeps, got %v", sleeps)
	}
	for _, d := range sleeps {
		if d != time.Second {
			t.Fatalf("expected 1s spacing, got %v", sleeps)
		}
	}
	if res.Elapsed != 3*time.Second {
		t.Fatalf("expected 3s elapsed, got %s", res.Elapsed)
	}
	if res.Err() != nil {
		t.Fatalf("completed result must not carry an error: %v", res.Err())
	}
}

func TestPollerStatusFuncSeesEveryQuery(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunQueued, RunInProgress, RunCompleted}}
	clock := newFakeClock()
	var lines []string
	opts := append(clock.options(), WithStatusFunc(func(run Run, attempt int) {
		lines = append(lines, fmt.Sprintf("%d:%s", attempt, run.Status))
	}))

	if _, err := NewPoller(runs, PollConfig{Interval: time.Second}, opts...).Wait(context.Background(), "thread_1", "run_1"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := strings.Join(lines, " "); got != "1:queued 2:in_progress 3:completed" {
		t.Fatalf("unexpected status sequence %q", got)
	}
}

func TestPollerTerminalStatusesStopOnFirstQuery(t *testing.T) {
	tests := []struct {
		status  RunStatus
		outcome Outcome
		wantErr error
	}{
		{status: RunCompleted, outcome: OutcomeCompleted},
		{status: RunFailed, outcome: OutcomeFailed, wantErr: ErrRunFailed},
		{status: RunCancelled, outcome: OutcomeTerminal, wantErr: ErrRunNotCompleted},
		{status: RunExpired, outcome: OutcomeTerminal, wantErr: ErrRunNotCompleted},
		{status: RunIncomplete, outcome: OutcomeTerminal, wantErr: ErrRunNotCompleted},
		{status: RunCancelling, outcome: OutcomeTerminal, wantErr: ErrRunNotCompleted},
		{status: "paused_by_admin", outcome: OutcomeTerminal, wantErr: ErrRunNotCompleted},
		{status: "", outcome: OutcomeTerminal, wantErr: ErrRunNotCompleted},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			runs := &scriptedRuns{statuses: []RunStatus{tt.status, RunInProgress}}
			clock := newFakeClock()
			res, err := NewPoller(runs, PollConfig{}, clock.options()...).Wait(context.Background(), "t", "r")
			if err != nil {
				t.Fatalf("wait: %v", err)
			}
			if runs.Calls() != 1 || res.Attempts != 1 {
				t.Fatalf("expected a single query, got %d", runs.Calls())
			}
			if len(clock.Sleeps()) != 0 {
				t.Fatalf("terminal status must not sleep")
			}
			if res.Outcome != tt.outcome {
				t.Fatalf("outcome = %s, want %s", res.Outcome, tt.outcome)
			}
			if tt.wantErr != nil && !errors.Is(res.Err(), tt.wantErr) {
				t.Fatalf("Err() = %v, want %v", res.Err(), tt.wantErr)
			}
		})
	}
}

func TestPollerRequiresActionKeepsPolling(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunRequiresAction, RunRequiresAction, RunCompleted}}
	clock := newFakeClock()
	res, err := NewPoller(runs, PollConfig{Interval: 10 * time.Millisecond}, clock.options()...).Wait(context.Background(), "t", "r")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Attempts != 3 || res.Outcome != OutcomeCompleted {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPollerIsIdempotentOnTerminalRun(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunCompleted}}
	clock := newFakeClock()
	p := NewPoller(runs, PollConfig{Interval: time.Second}, clock.options()...)

	first, err := p.Wait(context.Background(), "t", "r")
	if err != nil {
		t.Fatalf("first wait: %v", err)
	}
	second, err := p.Wait(context.Background(), "t", "r")
	if err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if runs.Calls() != 2 || second.Attempts != 1 {
		t.Fatalf("expected one query per wait, got %d calls", runs.Calls())
	}
	if first.Run.ID != second.Run.ID || first.Run.Status != second.Run.Status {
		t.Fatalf("expected the same terminal record, got %+v and %+v", first.Run, second.Run)
	}
	if second.Elapsed != 0 {
		t.Fatalf("second wait must return immediately, took %s", second.Elapsed)
	}
}

func TestPollerMaxAttemptsTimesOut(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunInProgress}}
	clock := newFakeClock()
	res, err := NewPoller(runs, PollConfig{Interval: time.Second, MaxAttempts: 3}, clock.options()...).Wait(context.Background(), "t", "r")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("expected timed out, got %s", res.Outcome)
	}
	if res.Attempts != 3 || len(clock.Sleeps()) != 2 {
		t.Fatalf("expected 3 queries and 2 sleeps, got %d and %d", res.Attempts, len(clock.Sleeps()))
	}
	if res.Run.Status != RunInProgress {
		t.Fatalf("expected last observed record, got %s", res.Run.Status)
	}
	if !errors.Is(res.Err(), ErrPollTimedOut) {
		t.Fatalf("expected ErrPollTimedOut, got %v", res.Err())
	}
}

func TestPollerMaxWaitStopsBeforeOversleeping(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunQueued}}
	clock := newFakeClock()
	res, err := NewPoller(runs, PollConfig{Interval: time.Second, MaxWait: 2500 * time.Millisecond}, clock.options()...).Wait(context.Background(), "t", "r")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("expected timed out, got %s", res.Outcome)
	}
	if res.Attempts != 3 {
		t.Fatalf("expected 3 queries, got %d", res.Attempts)
	}
	if res.Elapsed != 2*time.Second {
		t.Fatalf("expected to stop at 2s, got %s", res.Elapsed)
	}
}

func TestPollerMaxWaitBoundsHungQuery(t *testing.T) {
	getter := RunGetterFunc(func(ctx context.Context, threadID, runID string) (Run, error) {
		<-ctx.Done()
		return Run{}, ctx.Err()
	})
	start := time.Now()
	res, err := NewPoller(getter, PollConfig{MaxWait: 20 * time.Millisecond}).Wait(context.Background(), "t", "r")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("expected timed out, got %s", res.Outcome)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("hung query outlived MaxWait")
	}
}

func TestPollerContextCancelled(t *testing.T) {
	t.Run("BeforeFirstQuery", func(t *testing.T) {
		runs := &scriptedRuns{statuses: []RunStatus{RunCompleted}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := NewPoller(runs, PollConfig{}).Wait(ctx, "t", "r")
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		if res.Outcome != OutcomeCancelled || runs.Calls() != 0 {
			t.Fatalf("expected cancelled without queries, got %s after %d", res.Outcome, runs.Calls())
		}
		if !errors.Is(res.Err(), ErrPollCancelled) {
			t.Fatalf("expected ErrPollCancelled, got %v", res.Err())
		}
	})

	t.Run("BetweenQueries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		calls := 0
		getter := RunGetterFunc(func(ctx context.Context, threadID, runID string) (Run, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return Run{ID: runID, Status: RunInProgress}, nil
		})
		clock := newFakeClock()
		res, err := NewPoller(getter, PollConfig{MaxWait: time.Hour}, clock.options()...).Wait(ctx, "t", "r")
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		if res.Outcome != OutcomeCancelled {
			t.Fatalf("caller cancellation must not read as a timeout, got %s", res.Outcome)
		}
		if res.Attempts != 2 {
			t.Fatalf("expected 2 queries, got %d", res.Attempts)
		}
	})
}

func TestPollerReturnsQueryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	runs := &scriptedRuns{statuses: []RunStatus{RunQueued}, errAt: map[int]error{1: boom}}
	clock := newFakeClock()
	res, err := NewPoller(runs, PollConfig{}, clock.options()...).Wait(context.Background(), "t", "run_7")
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "run_7") {
		t.Fatalf("expected run id in error, got %v", err)
	}
	if res.Attempts != 1 || runs.Calls() != 2 {
		t.Fatalf("expected polling to stop at the failed query, got attempts=%d calls=%d", res.Attempts, runs.Calls())
	}
}

func TestPollerRequiresIDs(t *testing.T) {
	runs := &scriptedRuns{statuses: []RunStatus{RunCompleted}}
	if _, err := NewPoller(runs, PollConfig{}).Wait(context.Background(), "", "r"); err == nil {
		t.Fatalf("expected error for empty thread id")
	}
	if _, err := WaitForRun(context.Background(), runs, "t", "", PollConfig{}); err == nil {
		t.Fatalf("expected error for empty run id")
	}
	if runs.Calls() != 0 {
		t.Fatalf("invalid input must not query")
	}
}

func TestPollResultErrIncludesLastError(t *testing.T) {
	res := PollResult{
		Run:     Run{ID: "run_1", Status: RunFailed, LastError: &RunError{Code: "rate_limit_exceeded", Message: "quota hit"}},
		Outcome: OutcomeFailed,
	}
	err := res.Err()
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate_limit_exceeded") || !strings.Contains(err.Error(), "quota hit") {
		t.Fatalf("expected last error detail, got %v", err)
	}
}

func TestPollConfigValidate(t *testing.T) {
	bad := []PollConfig{{Interval: -1}, {MaxWait: -1}, {MaxAttempts: -1}}
	for _, cfg := range bad {
		var cfgErr *ConfigError
		if !errors.As(cfg.validate(), &cfgErr) {
			t.Errorf("expected config error for %+v", cfg)
		}
	}
	if err := (PollConfig{}).validate(); err != nil {
		t.Fatalf("zero config is valid: %v", err)
	}
	if got := (PollConfig{}).interval(); got != DefaultPollInterval {
		t.Fatalf("expected default interval, got %s", got)
	}
}

func TestOutcomeString(t *testing.T) {
	want := map[Outcome]string{
		OutcomeCompleted: "completed",
		OutcomeFailed:    "failed",
		OutcomeCancelled: "cancelled",
		OutcomeTimedOut:  "timed_out",
		OutcomeTerminal:  "terminal",
		Outcome(42):      "outcome(42)",
	}
	for o, s := range want {
		if o.String() != s {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), o.String(), s)
		}
	}
}

package foundry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Conversation asks one agent questions on one thread. The zero ThreadID
// starts a new thread on the first Ask.
type Conversation struct {
	Service  Service
	AgentID  string
	ThreadID string
	Poll     PollConfig

	Logger  *zap.Logger
	Metrics *PollMetrics
	// OnStatus, when set, sees every run status the poller reads.
	OnStatus func(run Run, attempt int)
}

// Exchange is the result of one Ask. Reply is nil when the run produced
// no assistant message.
type Exchange struct {
	ThreadID string
	Run      Run
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration
	Reply    *Message
	Text     []string
}

// Err reports a non-completed outcome the way PollResult.Err does.
func (e Exchange) Err() error {
	return PollResult{Run: e.Run, Outcome: e.Outcome, Attempts: e.Attempts, Elapsed: e.Elapsed}.Err()
}

// Ask posts prompt as a user message, runs the agent, waits for the run,
// and reads back the latest assistant message written by that run. A failed or otherwise
// terminal run still has its reply looked up; a cancelled or timed out
// wait does not.
func (c *Conversation) Ask(ctx context.Context, prompt string) (Exchange, error) {
	if c.Service == nil {
		return Exchange{}, errors.New("conversation has no service")
	}
	if c.AgentID == "" {
		return Exchange{}, errors.New("conversation has no agent id")
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if c.ThreadID == "" {
		threadID, err := c.Service.CreateThread(ctx)
		if err != nil {
			return Exchange{}, fmt.Errorf("create thread: %w", err)
		}
		c.ThreadID = threadID
		logger.Debug("thread created", zap.String("thread_id", threadID))
	}

	if _, err := c.Service.PostMessage(ctx, c.ThreadID, RoleUser, prompt); err != nil {
		return Exchange{}, fmt.Errorf("post message: %w", err)
	}
	run, err := c.Service.SubmitRun(ctx, c.ThreadID, c.AgentID)
	if err != nil {
		return Exchange{}, fmt.Errorf("submit run: %w", err)
	}
	logger.Debug("run submitted", zap.String("run_id", run.ID), zap.String("status", string(run.Status)))

	poller := NewPoller(c.Service, c.Poll,
		WithPollLogger(logger), WithPollMetrics(c.Metrics), WithStatusFunc(c.OnStatus))
	res, err := poller.Wait(ctx, c.ThreadID, run.ID)
	if err != nil {
		return Exchange{ThreadID: c.ThreadID, Run: run}, err
	}

	ex := Exchange{
		ThreadID: c.ThreadID,
		Run:      res.Run,
		Outcome:  res.Outcome,
		Attempts: res.Attempts,
		Elapsed:  res.Elapsed,
	}
	if res.Outcome == OutcomeCancelled || res.Outcome == OutcomeTimedOut {
		return ex, nil
	}

	reply, err := FindByRole(FromRun(c.Service.ListMessages(ctx, c.ThreadID), res.Run.ID), RoleAssistant)
	switch {
	case errors.Is(err, ErrMessageNotFound):
		return ex, nil
	case err != nil:
		return ex, fmt.Errorf("list messages: %w", err)
	}
	ex.Reply = &reply
	ex.Text = TextBlocks(reply)
	return ex, nil
}

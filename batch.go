package foundry

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency caps the waits WaitAll runs at once.
const DefaultBatchConcurrency = 8

// RunRef names one run to wait on.
type RunRef struct {
	ThreadID string
	RunID    string
}

// BatchResult holds one PollResult per RunRef, in the order the refs
// were given.
type BatchResult struct {
	Refs    []RunRef
	Results []PollResult
}

// Err joins the errors of every wait that did not complete.
func (b BatchResult) Err() error {
	var errs []error
	for _, res := range b.Results {
		if err := res.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Completed reports how many runs reached completed.
func (b BatchResult) Completed() int {
	n := 0
	for _, res := range b.Results {
		if res.Outcome == OutcomeCompleted {
			n++
		}
	}
	return n
}

// WaitAll waits on every ref with the Poller's bounds, at most
// DefaultBatchConcurrency at a time. The first query error cancels the
// remaining waits and is returned. Results keep the order of refs.
func (p *Poller) WaitAll(ctx context.Context, refs []RunRef) (BatchResult, error) {
	return p.WaitAllLimit(ctx, refs, DefaultBatchConcurrency)
}

// WaitAllLimit is WaitAll with an explicit concurrency cap. A limit of
// zero or less waits on every ref at once.
func (p *Poller) WaitAllLimit(ctx context.Context, refs []RunRef, limit int) (BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for i, ref := range refs {
		if ref.ThreadID == "" || ref.RunID == "" {
			return BatchResult{}, fmt.Errorf("run ref %d: threadID and runID are required", i)
		}
	}

	batch := BatchResult{
		Refs:    append([]RunRef(nil), refs...),
		Results: make([]PollResult, len(refs)),
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ref := range refs {
		g.Go(func() error {
			res, err := p.Wait(gctx, ref.ThreadID, ref.RunID)
			batch.Results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return batch, fmt.Errorf("batch wait: %w", err)
	}
	return batch, nil
}

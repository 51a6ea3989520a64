package foundry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RunsAPI submits, inspects and waits on runs.
type RunsAPI struct {
	httpClient *httpClient
	poll       PollConfig
	logger     *zap.Logger
	metrics    *PollMetrics
}

// Create submits a run of an agent on a thread.
func (r *RunsAPI) Create(threadID string, params RunParams) (Run, error) {
	return r.CreateWithContext(context.Background(), threadID, params)
}

// CreateWithContext submits a run with a caller-supplied context.
func (r *RunsAPI) CreateWithContext(ctx context.Context, threadID string, params RunParams) (Run, error) {
	if threadID == "" {
		return Run{}, fmt.Errorf("threadID cannot be empty")
	}
	if params.AgentID == "" {
		return Run{}, fmt.Errorf("agent id cannot be empty")
	}
	var resp Run
	if err := r.httpClient.postJSON(ctx, runsPath(threadID), params, nil, &resp); err != nil {
		return Run{}, fmt.Errorf("create run in thread %s: %w", threadID, err)
	}
	return resp, nil
}

// Retrieve fetches the current run record.
func (r *RunsAPI) Retrieve(threadID, runID string) (Run, error) {
	return r.RetrieveWithContext(context.Background(), threadID, runID)
}

// RetrieveWithContext fetches the current run record with a caller-supplied context.
func (r *RunsAPI) RetrieveWithContext(ctx context.Context, threadID, runID string) (Run, error) {
	if threadID == "" || runID == "" {
		return Run{}, fmt.Errorf("threadID and runID cannot be empty")
	}
	var resp Run
	if err := r.httpClient.getJSON(ctx, runPath(threadID, runID), nil, &resp); err != nil {
		return Run{}, fmt.Errorf("retrieve run %s: %w", runID, err)
	}
	return resp, nil
}

// GetRun implements RunGetter.
func (r *RunsAPI) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	return r.RetrieveWithContext(ctx, threadID, runID)
}

// List returns one page of runs on a thread.
func (r *RunsAPI) List(threadID string, params ListParams) (ListResponse[Run], error) {
	return r.ListWithContext(context.Background(), threadID, params)
}

// ListWithContext returns one page of runs with a caller-supplied context.
func (r *RunsAPI) ListWithContext(ctx context.Context, threadID string, params ListParams) (ListResponse[Run], error) {
	if threadID == "" {
		return ListResponse[Run]{}, fmt.Errorf("threadID cannot be empty")
	}
	var resp ListResponse[Run]
	if err := r.httpClient.getJSON(ctx, runsPath(threadID), params.query(), &resp); err != nil {
		return ListResponse[Run]{}, fmt.Errorf("list runs in thread %s: %w", threadID, err)
	}
	return resp, nil
}

// Cancel asks the service to stop a run. The run passes through
// cancelling before it settles.
func (r *RunsAPI) Cancel(threadID, runID string) (Run, error) {
	return r.CancelWithContext(context.Background(), threadID, runID)
}

// CancelWithContext cancels a run with a caller-supplied context.
func (r *RunsAPI) CancelWithContext(ctx context.Context, threadID, runID string) (Run, error) {
	if threadID == "" || runID == "" {
		return Run{}, fmt.Errorf("threadID and runID cannot be empty")
	}
	var resp Run
	if err := r.httpClient.postJSON(ctx, runPath(threadID, runID)+"/cancel", nil, nil, &resp); err != nil {
		return Run{}, fmt.Errorf("cancel run %s: %w", runID, err)
	}
	return resp, nil
}

// SubmitToolOutputs answers the tool calls of a run in requires_action.
func (r *RunsAPI) SubmitToolOutputs(threadID, runID string, outputs []ToolOutput) (Run, error) {
	return r.SubmitToolOutputsWithContext(context.Background(), threadID, runID, outputs)
}

// SubmitToolOutputsWithContext answers tool calls with a caller-supplied context.
func (r *RunsAPI) SubmitToolOutputsWithContext(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error) {
	if threadID == "" || runID == "" {
		return Run{}, fmt.Errorf("threadID and runID cannot be empty")
	}
	if len(outputs) == 0 {
		return Run{}, fmt.Errorf("at least one tool output is required")
	}
	payload := map[string]any{"tool_outputs": outputs}
	var resp Run
	if err := r.httpClient.postJSON(ctx, runPath(threadID, runID)+"/submit_tool_outputs", payload, nil, &resp); err != nil {
		return Run{}, fmt.Errorf("submit tool outputs for run %s: %w", runID, err)
	}
	return resp, nil
}

// Stream submits a run and returns its event stream. The caller must
// Close the stream.
func (r *RunsAPI) Stream(ctx context.Context, threadID string, params RunParams) (*RunStream, error) {
	if threadID == "" {
		return nil, fmt.Errorf("threadID cannot be empty")
	}
	if params.AgentID == "" {
		return nil, fmt.Errorf("agent id cannot be empty")
	}
	payload := struct {
		RunParams
		Stream bool `json:"stream"`
	}{RunParams: params, Stream: true}
	body, err := r.httpClient.postStream(ctx, runsPath(threadID), payload)
	if err != nil {
		return nil, fmt.Errorf("stream run in thread %s: %w", threadID, err)
	}
	return newRunStream(body), nil
}

// Poller returns a Poller using the client's poll configuration.
func (r *RunsAPI) Poller(opts ...PollerOption) *Poller {
	base := []PollerOption{WithPollLogger(r.logger), WithPollMetrics(r.metrics)}
	return NewPoller(r, r.poll, append(base, opts...)...)
}

// Wait polls an existing run until it is terminal.
func (r *RunsAPI) Wait(ctx context.Context, threadID, runID string) (PollResult, error) {
	return r.Poller().Wait(ctx, threadID, runID)
}

// CreateAndWait submits a run and polls it to a terminal status.
func (r *RunsAPI) CreateAndWait(ctx context.Context, threadID string, params RunParams) (PollResult, error) {
	run, err := r.CreateWithContext(ctx, threadID, params)
	if err != nil {
		return PollResult{}, err
	}
	return r.Wait(ctx, threadID, run.ID)
}

func runsPath(threadID string) string {
	return "/threads/" + pathEscape(threadID) + "/runs"
}

func runPath(threadID, runID string) string {
	return runsPath(threadID) + "/" + pathEscape(runID)
}

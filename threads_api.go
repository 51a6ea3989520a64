package foundry

import (
	"context"
	"fmt"
)

// ThreadsAPI manages conversation threads.
type ThreadsAPI struct {
	httpClient *httpClient
}

// Create starts a new thread.
func (t *ThreadsAPI) Create(params ThreadParams) (Thread, error) {
	return t.CreateWithContext(context.Background(), params)
}

// CreateWithContext starts a new thread with a caller-supplied context.
func (t *ThreadsAPI) CreateWithContext(ctx context.Context, params ThreadParams) (Thread, error) {
	var resp Thread
	if err := t.httpClient.postJSON(ctx, "/threads", params, nil, &resp); err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	return resp, nil
}

// Retrieve fetches a thread.
func (t *ThreadsAPI) Retrieve(threadID string) (Thread, error) {
	return t.RetrieveWithContext(context.Background(), threadID)
}

// RetrieveWithContext fetches a thread with a caller-supplied context.
func (t *ThreadsAPI) RetrieveWithContext(ctx context.Context, threadID string) (Thread, error) {
	if threadID == "" {
		return Thread{}, fmt.Errorf("threadID cannot be empty")
	}
	var resp Thread
	if err := t.httpClient.getJSON(ctx, "/threads/"+pathEscape(threadID), nil, &resp); err != nil {
		return Thread{}, fmt.Errorf("retrieve thread %s: %w", threadID, err)
	}
	return resp, nil
}

// Delete removes a thread and its messages.
func (t *ThreadsAPI) Delete(threadID string) error {
	return t.DeleteWithContext(context.Background(), threadID)
}

// DeleteWithContext removes a thread with a caller-supplied context.
func (t *ThreadsAPI) DeleteWithContext(ctx context.Context, threadID string) error {
	if threadID == "" {
		return fmt.Errorf("threadID cannot be empty")
	}
	var resp DeletionStatus
	if err := t.httpClient.deleteJSON(ctx, "/threads/"+pathEscape(threadID), &resp); err != nil {
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}
	return nil
}

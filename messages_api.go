package foundry

import (
	"context"
	"fmt"
	"iter"
)

// MessageParams is a new message. Only user and assistant roles are
// accepted by the service.
type MessageParams struct {
	Role     MessageRole       `json:"role"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MessageListParams filters a message listing. Order defaults to
// OrderDesc, newest first.
type MessageListParams struct {
	ListParams
	RunID string
}

func (p MessageListParams) query() map[string]string {
	q := p.ListParams.query()
	if p.RunID != "" {
		q["run_id"] = p.RunID
	}
	return q
}

// MessagesAPI reads and appends thread messages.
type MessagesAPI struct {
	httpClient *httpClient
}

// Create appends a message to a thread.
func (m *MessagesAPI) Create(threadID string, params MessageParams) (Message, error) {
	return m.CreateWithContext(context.Background(), threadID, params)
}

// CreateWithContext appends a message with a caller-supplied context.
func (m *MessagesAPI) CreateWithContext(ctx context.Context, threadID string, params MessageParams) (Message, error) {
	if threadID == "" {
		return Message{}, fmt.Errorf("threadID cannot be empty")
	}
	if params.Role == RoleUnknown {
		params.Role = RoleUser
	}
	var resp Message
	if err := m.httpClient.postJSON(ctx, messagesPath(threadID), params, nil, &resp); err != nil {
		return Message{}, fmt.Errorf("create message in thread %s: %w", threadID, err)
	}
	return resp, nil
}

// List returns one page of messages.
func (m *MessagesAPI) List(threadID string, params MessageListParams) (ListResponse[Message], error) {
	return m.ListWithContext(context.Background(), threadID, params)
}

// ListWithContext returns one page of messages with a caller-supplied context.
func (m *MessagesAPI) ListWithContext(ctx context.Context, threadID string, params MessageListParams) (ListResponse[Message], error) {
	if threadID == "" {
		return ListResponse[Message]{}, fmt.Errorf("threadID cannot be empty")
	}
	var resp ListResponse[Message]
	if err := m.httpClient.getJSON(ctx, messagesPath(threadID), params.query(), &resp); err != nil {
		return ListResponse[Message]{}, fmt.Errorf("list messages in thread %s: %w", threadID, err)
	}
	return resp, nil
}

// All lazily walks every page of the listing, following the last_id
// cursor while has_more is set. Pages are fetched only as the sequence is
// consumed, so stopping early saves requests. An error ends the sequence.
func (m *MessagesAPI) All(ctx context.Context, threadID string, params MessageListParams) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for {
			page, err := m.ListWithContext(ctx, threadID, params)
			if err != nil {
				yield(Message{}, err)
				return
			}
			for _, msg := range page.Data {
				if !yield(msg, nil) {
					return
				}
			}
			if !page.HasMore || page.LastID == "" || len(page.Data) == 0 {
				return
			}
			params.After = page.LastID
			params.Before = ""
		}
	}
}

func messagesPath(threadID string) string {
	return "/threads/" + pathEscape(threadID) + "/messages"
}

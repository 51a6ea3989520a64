package foundry

import (
	"context"
	"io"
	"iter"
)

// Service is the minimal remote surface the conversation flow needs.
// ListMessages must yield newest first.
type Service interface {
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID string, role MessageRole, text string) (string, error)
	SubmitRun(ctx context.Context, threadID, agentID string) (Run, error)
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
	ListMessages(ctx context.Context, threadID string) iter.Seq2[Message, error]
	CreateAgent(ctx context.Context, params AgentParams) (string, error)
	DeleteAgent(ctx context.Context, agentID string) error

	UploadFile(ctx context.Context, r io.Reader, name string) (string, error)
	CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
	DeleteVectorStore(ctx context.Context, vectorStoreID string) error
}

// Service returns the client as a Service.
func (c *Client) Service() Service {
	return restService{c: c}
}

type restService struct {
	c *Client
}

func (s restService) CreateThread(ctx context.Context) (string, error) {
	thread, err := s.c.Threads.CreateWithContext(ctx, ThreadParams{})
	return thread.ID, err
}

func (s restService) PostMessage(ctx context.Context, threadID string, role MessageRole, text string) (string, error) {
	msg, err := s.c.Messages.CreateWithContext(ctx, threadID, MessageParams{Role: role, Content: text})
	return msg.ID, err
}

func (s restService) SubmitRun(ctx context.Context, threadID, agentID string) (Run, error) {
	return s.c.Runs.CreateWithContext(ctx, threadID, RunParams{AgentID: agentID})
}

func (s restService) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	return s.c.Runs.RetrieveWithContext(ctx, threadID, runID)
}

func (s restService) ListMessages(ctx context.Context, threadID string) iter.Seq2[Message, error] {
	return s.c.Messages.All(ctx, threadID, MessageListParams{ListParams: ListParams{Order: OrderDesc}})
}

func (s restService) CreateAgent(ctx context.Context, params AgentParams) (string, error) {
	agent, err := s.c.Agents.CreateWithContext(ctx, params)
	return agent.ID, err
}

func (s restService) DeleteAgent(ctx context.Context, agentID string) error {
	return s.c.Agents.DeleteWithContext(ctx, agentID)
}

func (s restService) UploadFile(ctx context.Context, r io.Reader, name string) (string, error) {
	file, err := s.c.Files.UploadReader(ctx, r, name, PurposeAgents)
	return file.ID, err
}

func (s restService) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	vs, err := s.c.VectorStores.CreateWithContext(ctx, VectorStoreParams{Name: name, FileIDs: fileIDs})
	return vs.ID, err
}

func (s restService) DeleteFile(ctx context.Context, fileID string) error {
	return s.c.Files.DeleteWithContext(ctx, fileID)
}

func (s restService) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	return s.c.VectorStores.DeleteWithContext(ctx, vectorStoreID)
}

// Package openaicompat implements foundry.Service on top of the
// go-openai Assistants client, for endpoints that speak the OpenAI
// Assistants API directly.
package openaicompat

import (
	"context"
	"fmt"
	"io"
	"iter"

	foundry "github.com/foundry-agents/foundry-go"
	openai "github.com/sashabaranov/go-openai"
)

// pageSize is the page length requested when listing messages.
const pageSize = 20

// Service adapts an *openai.Client. Vector store operations are not
// available through this client and return foundry.ErrUnsupported.
type Service struct {
	client *openai.Client
}

var _ foundry.Service = (*Service)(nil)

// New wraps client.
func New(client *openai.Client) *Service {
	return &Service{client: client}
}

// NewWithToken builds a client for the public OpenAI API, or for an Azure
// OpenAI resource when baseURL is set.
func NewWithToken(token, baseURL, apiVersion string) *Service {
	var config openai.ClientConfig
	if baseURL != "" {
		config = openai.DefaultAzureConfig(token, baseURL)
		if apiVersion != "" {
			config.APIVersion = apiVersion
		}
	} else {
		config = openai.DefaultConfig(token)
	}
	return New(openai.NewClientWithConfig(config))
}

func (s *Service) CreateThread(ctx context.Context) (string, error) {
	thread, err := s.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

func (s *Service) PostMessage(ctx context.Context, threadID string, role foundry.MessageRole, text string) (string, error) {
	msg, err := s.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    roleToOpenAI(role),
		Content: text,
	})
	if err != nil {
		return "", fmt.Errorf("create message in thread %s: %w", threadID, err)
	}
	return msg.ID, nil
}

func (s *Service) SubmitRun(ctx context.Context, threadID, agentID string) (foundry.Run, error) {
	run, err := s.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: agentID})
	if err != nil {
		return foundry.Run{}, fmt.Errorf("create run in thread %s: %w", threadID, err)
	}
	return runFromOpenAI(run), nil
}

func (s *Service) GetRun(ctx context.Context, threadID, runID string) (foundry.Run, error) {
	run, err := s.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return foundry.Run{}, fmt.Errorf("retrieve run %s: %w", runID, err)
	}
	return runFromOpenAI(run), nil
}

// ListMessages yields newest first, fetching further pages on demand.
func (s *Service) ListMessages(ctx context.Context, threadID string) iter.Seq2[foundry.Message, error] {
	return func(yield func(foundry.Message, error) bool) {
		limit := pageSize
		order := string(foundry.OrderDesc)
		var after *string
		for {
			page, err := s.client.ListMessage(ctx, threadID, &limit, &order, after, nil)
			if err != nil {
				yield(foundry.Message{}, fmt.Errorf("list messages in thread %s: %w", threadID, err))
				return
			}
			for _, msg := range page.Messages {
				if !yield(messageFromOpenAI(msg), nil) {
					return
				}
			}
			if !page.HasMore || page.LastID == nil || *page.LastID == "" || len(page.Messages) == 0 {
				return
			}
			after = page.LastID
		}
	}
}

func (s *Service) CreateAgent(ctx context.Context, params foundry.AgentParams) (string, error) {
	req := openai.AssistantRequest{
		Model: params.Model,
		Tools: toolsToOpenAI(params.Tools),
	}
	if params.Name != "" {
		req.Name = &params.Name
	}
	if params.Description != "" {
		req.Description = &params.Description
	}
	if params.Instructions != "" {
		req.Instructions = &params.Instructions
	}
	if params.ToolResources != nil && params.ToolResources.CodeInterpreter != nil {
		req.FileIDs = params.ToolResources.CodeInterpreter.FileIDs
	}
	assistant, err := s.client.CreateAssistant(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	return assistant.ID, nil
}

func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	if _, err := s.client.DeleteAssistant(ctx, agentID); err != nil {
		return fmt.Errorf("delete assistant %s: %w", agentID, err)
	}
	return nil
}

func (s *Service) UploadFile(ctx context.Context, r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	file, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", name, err)
	}
	return file.ID, nil
}

func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}

func (s *Service) CreateVectorStore(context.Context, string, []string) (string, error) {
	return "", fmt.Errorf("create vector store: %w", foundry.ErrUnsupported)
}

func (s *Service) DeleteVectorStore(context.Context, string) error {
	return fmt.Errorf("delete vector store: %w", foundry.ErrUnsupported)
}

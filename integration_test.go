//go:build integration
// +build integration

package foundry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

/*
Integration tests against a live Azure AI Foundry project.

Run with: go test -tags=integration -v ./...

They read the usual environment variables (AZURE_AI_AGENT_ENDPOINT,
AZURE_OPENAI_API_DEPLOYMENT_NAME and either AZURE_OPENAI_API_KEY or a
Microsoft Entra ID login) and skip when no endpoint is configured.
*/

func integrationClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("AZURE_AI_AGENT_ENDPOINT") == "" && os.Getenv("PROJECT_ENDPOINT") == "" {
		t.Skip("AZURE_AI_AGENT_ENDPOINT not set")
	}
	client, err := NewClientWithParams(ConfigParams{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func integrationAgent(t *testing.T, client *Client, params AgentParams) Agent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if params.Name == "" {
		params.Name = "foundry-go-integration"
	}
	agent, err := client.Agents.CreateWithContext(ctx, params)
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Agents.Delete(agent.ID); err != nil {
			t.Logf("delete agent %s: %v", agent.ID, err)
		}
	})
	return agent
}

func integrationPoll() PollConfig {
	return PollConfig{Interval: time.Second, MaxWait: 3 * time.Minute}
}

func TestIntegrationConversation(t *testing.T) {
	client := integrationClient(t)
	agent := integrationAgent(t, client, AgentParams{Instructions: "Answer in one short sentence."})

	conv := &Conversation{Service: client.Service(), AgentID: agent.ID, Poll: integrationPoll(), Logger: client.Logger()}
	ctx := context.Background()

	first, err := conv.Ask(ctx, "What is the capital of France?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if err := first.Err(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if first.Reply == nil || !strings.Contains(strings.ToLower(RenderText(*first.Reply)), "paris") {
		t.Fatalf("unexpected reply %v", first.Text)
	}

	second, err := conv.Ask(ctx, "And of Italy?")
	if err != nil {
		t.Fatalf("second ask: %v", err)
	}
	if second.ThreadID != first.ThreadID {
		t.Fatalf("expected follow-up on the same thread")
	}
	if second.Reply == nil || second.Reply.ID == first.Reply.ID {
		t.Fatalf("expected a new reply, got %+v", second.Reply)
	}
}

func TestIntegrationPollerTimesOut(t *testing.T) {
	client := integrationClient(t)
	agent := integrationAgent(t, client, AgentParams{Instructions: "Write long, detailed answers."})
	ctx := context.Background()

	thread, err := client.Threads.CreateWithContext(ctx, ThreadParams{})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	t.Cleanup(func() { _ = client.Threads.Delete(thread.ID) })
	if _, err := client.Messages.CreateWithContext(ctx, thread.ID, MessageParams{Content: "Write an essay on the history of Rome."}); err != nil {
		t.Fatalf("post message: %v", err)
	}
	run, err := client.Runs.CreateWithContext(ctx, thread.ID, RunParams{AgentID: agent.ID})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	res, err := NewPoller(client.Runs, PollConfig{Interval: time.Second, MaxAttempts: 1}).Wait(ctx, thread.ID, run.ID)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeTimedOut && !res.Run.Status.IsTerminal() {
		t.Fatalf("unexpected outcome %s for status %s", res.Outcome, res.Run.Status)
	}
	if res.Outcome == OutcomeTimedOut {
		if _, err := client.Runs.CancelWithContext(ctx, thread.ID, run.ID); err != nil {
			t.Logf("cancel run: %v", err)
		}
	}
}

func TestIntegrationFileSearch(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "product_info.md")
	doc := "# Contoso Rainbow Umbrella\n\nThe Contoso Rainbow Umbrella costs 42 euros and comes in seven colours.\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	file, err := client.Files.UploadPath(ctx, path, PurposeAgents)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	t.Cleanup(func() { _ = client.Files.Delete(file.ID) })

	store, err := client.VectorStores.CreateWithContext(ctx, VectorStoreParams{Name: "integration", FileIDs: []string{file.ID}})
	if err != nil {
		t.Fatalf("create vector store: %v", err)
	}
	t.Cleanup(func() { _ = client.VectorStores.Delete(store.ID) })

	agent := integrationAgent(t, client, AgentParams{
		Instructions:  "Answer using the attached product information.",
		Tools:         []Tool{FileSearchTool()},
		ToolResources: FileSearchResources(store.ID),
	})
	conv := &Conversation{Service: client.Service(), AgentID: agent.ID, Poll: integrationPoll()}
	ex, err := conv.Ask(ctx, "How much does the Contoso Rainbow Umbrella cost?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if err := ex.Err(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(strings.Join(ex.Text, " "), "42") {
		t.Fatalf("expected the price in the reply, got %v", ex.Text)
	}
}

func TestIntegrationInference(t *testing.T) {
	client := integrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	answer, err := client.Inference.Ask(ctx, "You are a helpful assistant.", "What is the capital of France?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(strings.ToLower(answer), "paris") {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestIntegrationMissingRun(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()
	thread, err := client.Threads.CreateWithContext(ctx, ThreadParams{})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	t.Cleanup(func() { _ = client.Threads.Delete(thread.ID) })

	_, err = client.Runs.Wait(ctx, thread.ID, "run_does_not_exist")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

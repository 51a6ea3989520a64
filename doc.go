// Package foundry is a Go client for the Azure AI Foundry agent service.
//
// # Installation
//
//	go get github.com/foundry-agents/foundry-go
//
// # Quick Start
//
// Create an agent, ask it a question and print the reply:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"time"
//
//		foundry "github.com/foundry-agents/foundry-go"
//	)
//
//	func main() {
//		client, err := foundry.NewClient("", "", "") // environment fallbacks
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Close()
//
//		ctx := context.Background()
//		agent, err := client.Agents.CreateWithContext(ctx, foundry.AgentParams{
//			Name:         "poet",
//			Instructions: "You are a helpful assistant.",
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Agents.DeleteWithContext(ctx, agent.ID)
//
//		conv := &foundry.Conversation{
//			Service: client.Service(),
//			AgentID: agent.ID,
//			Poll:    foundry.PollConfig{MaxWait: 5 * time.Minute},
//		}
//		ex, err := conv.Ask(ctx, "Write me a poem about flowers")
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := ex.Err(); err != nil {
//			log.Fatal(err)
//		}
//		for _, text := range ex.Text {
//			fmt.Println(text)
//		}
//	}
//
// # Waiting on runs
//
// A run is polled with a Poller until it reaches a terminal status.
// PollResult.Outcome tells a completed run from a failed one, from a
// wait that ran out of MaxWait or MaxAttempts, and from a caller that
// cancelled its context. Only query errors are returned as errors.
//
//	res, err := client.Runs.CreateAndWait(ctx, threadID, foundry.RunParams{AgentID: agentID})
//	if err != nil {
//		return err // the service could not be queried
//	}
//	switch res.Outcome {
//	case foundry.OutcomeCompleted:
//		msg, err := foundry.FindByRole(client.Messages.All(ctx, threadID, foundry.MessageListParams{}), foundry.RoleAssistant)
//		...
//	case foundry.OutcomeTimedOut:
//		...
//	}
//
// # Environment Variables
//
//   - AZURE_AI_AGENT_ENDPOINT or PROJECT_ENDPOINT: the project endpoint
//   - AZURE_OPENAI_ENDPOINT: the model inference endpoint
//   - AZURE_OPENAI_API_DEPLOYMENT_NAME: the model deployment agents run on
//   - AZURE_OPENAI_API_KEY: optional key; without it Microsoft Entra ID is used
//   - AZURE_OPENAI_API_VERSION: optional inference api-version
//   - FOUNDRY_TIMEOUT: optional per-request timeout in seconds
//   - FOUNDRY_MAX_RETRIES: optional retry count for 429 and 5xx responses
//   - FOUNDRY_POLL_INTERVAL, FOUNDRY_POLL_TIMEOUT, FOUNDRY_POLL_MAX_ATTEMPTS: run wait bounds
//   - FOUNDRY_CONFIG_FILE: optional YAML file read before the environment
//   - FOUNDRY_DEBUG: enables debug logging
package foundry

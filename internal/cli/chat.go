package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	foundry "github.com/foundry-agents/foundry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chatName         string
	chatInstructions string
	chatPrompt       string
	chatKeepAgent    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a temporary agent",
	Long: `Create an agent, ask it one question on a new thread, wait for the run,
print the token usage and the agent's reply, then delete the agent.

Examples:
  foundry-demo chat
  foundry-demo chat --prompt "Write a haiku about rain" --poll-timeout 2m`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatName, "name", "poem-agent", "agent name")
	chatCmd.Flags().StringVar(&chatInstructions, "instructions", "", "agent instructions")
	chatCmd.Flags().StringVarP(&chatPrompt, "prompt", "p", "Write me a poem about flowers", "user prompt")
	chatCmd.Flags().BoolVar(&chatKeepAgent, "keep", false, "keep the agent instead of deleting it")
}

type chatOptions struct {
	Name         string
	Model        string
	Instructions string
	Prompt       string
	Keep         bool
	Poll         foundry.PollConfig
}

func runChat(cmd *cobra.Command, args []string) error {
	return chatFlow(cmd.Context(), cmd.OutOrStdout(), client.Service(), logger, chatOptions{
		Name:         chatName,
		Model:        client.Config.Deployment,
		Instructions: chatInstructions,
		Prompt:       chatPrompt,
		Keep:         chatKeepAgent,
		Poll:         client.Config.Poll,
	})
}

// chatFlow creates an agent, asks one question, reports the result and
// removes the agent again even when the exchange fails.
func chatFlow(ctx context.Context, out io.Writer, svc foundry.Service, log *zap.Logger, opts chatOptions) (err error) {
	agentID, err := svc.CreateAgent(ctx, foundry.AgentParams{
		Model:        opts.Model,
		Name:         opts.Name,
		Instructions: opts.Instructions,
	})
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	printTitle(out, "POEM AGENT")

	if !opts.Keep {
		defer func() {
			printSection(out, "Clean Up Poem Agent")
			// Cleanup must run even when ctx was cancelled.
			if derr := svc.DeleteAgent(context.WithoutCancel(ctx), agentID); derr != nil {
				log.Warn("delete agent failed", zap.String("agent_id", agentID), zap.Error(derr))
				if err == nil {
					err = fmt.Errorf("delete agent %s: %w", agentID, derr)
				}
				return
			}
			fmt.Fprintf(out, "Deleted Agent, Agent ID: %s\n", agentID)
		}()
	}

	printSection(out, "User Prompt")
	fmt.Fprintln(out, opts.Prompt)

	printStatus := func(run foundry.Run, _ int) {
		fmt.Fprintf(out, "Run status: %s\n", run.Status)
	}
	conv := &foundry.Conversation{
		Service:  svc,
		AgentID:  agentID,
		Poll:     opts.Poll,
		Logger:   log,
		OnStatus: printStatus,
	}
	printSection(out, "Run Status")
	ex, err := conv.Ask(ctx, opts.Prompt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s after %d queries (%s)\n", ex.Run.Status, ex.Attempts, ex.Elapsed.Round(time.Millisecond))
	if ex.Outcome == foundry.OutcomeCancelled || ex.Outcome == foundry.OutcomeTimedOut {
		return ex.Err()
	}
	if ex.Outcome != foundry.OutcomeCompleted {
		fmt.Fprintln(out, defaultTheme.errorStyle().Render(ex.Err().Error()))
	}

	printSection(out, "Token Usage")
	fmt.Fprintln(out, usageTable(ex.Run.Usage))

	printSection(out, "Response")
	printReply(out, ex.Reply)
	return nil
}

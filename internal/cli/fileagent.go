package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	foundry "github.com/foundry-agents/foundry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fileAgentPath            string
	fileAgentName            string
	fileAgentInstructions    string
	fileAgentPrompt          string
	fileAgentVectorStoreName string
)

var fileAgentCmd = &cobra.Command{
	Use:   "file-agent",
	Short: "Ask a file_search agent about an uploaded document",
	Long: `Upload a document, index it in a vector store, create an agent with the
file_search tool over it, stream one run and print the reply. The vector
store, the file and the agent are deleted afterwards.

Examples:
  foundry-demo file-agent --file data/product_info_1.md
  foundry-demo file-agent --file manual.pdf --prompt "How do I reset the device?"`,
	Args: cobra.NoArgs,
	RunE: runFileAgent,
}

func init() {
	fileAgentCmd.Flags().StringVarP(&fileAgentPath, "file", "f", "data/product_info_1.md", "document to upload")
	fileAgentCmd.Flags().StringVar(&fileAgentName, "name", "my-file-agent", "agent name")
	fileAgentCmd.Flags().StringVar(&fileAgentInstructions, "instructions",
		"You are a helpful assistant and can search information from uploaded files", "agent instructions")
	fileAgentCmd.Flags().StringVarP(&fileAgentPrompt, "prompt", "p", "What are the steps to setup the TrailMaster X4 Tent?", "user prompt")
	fileAgentCmd.Flags().StringVar(&fileAgentVectorStoreName, "vector-store", "my_vectorstore", "vector store name")
}

type fileAgentOptions struct {
	Path            string
	Name            string
	Instructions    string
	Prompt          string
	VectorStoreName string
}

func runFileAgent(cmd *cobra.Command, args []string) error {
	return fileAgentFlow(cmd.Context(), cmd.OutOrStdout(), client, logger, fileAgentOptions{
		Path:            fileAgentPath,
		Name:            fileAgentName,
		Instructions:    fileAgentInstructions,
		Prompt:          fileAgentPrompt,
		VectorStoreName: fileAgentVectorStoreName,
	})
}

// fileAgentFlow runs the upload, index, ask and clean up sequence.
// Resources created before a failure are still removed.
func fileAgentFlow(ctx context.Context, out io.Writer, c *foundry.Client, log *zap.Logger, opts fileAgentOptions) (err error) {
	var cleanups []func(context.Context) error
	agentID := ""
	defer func() {
		if len(cleanups) == 0 {
			return
		}
		printSection(out, "Clean Up File Agent")
		cleanupCtx := context.WithoutCancel(ctx)
		failed := false
		// Agent first, then vector store, then file.
		for i := len(cleanups) - 1; i >= 0; i-- {
			if cerr := cleanups[i](cleanupCtx); cerr != nil {
				failed = true
				log.Warn("cleanup failed", zap.Error(cerr))
				if err == nil {
					err = cerr
				}
			}
		}
		if !failed && agentID != "" {
			fmt.Fprintf(out, "Deleted VectorStore, File, and FileAgent. FileAgent ID: %s\n", agentID)
		}
	}()

	printTitle(out, "FILE AGENT")
	file, err := c.Files.UploadWithContext(ctx, foundry.FileUpload{
		Path:     opts.Path,
		Filename: filepath.Base(opts.Path),
		Purpose:  foundry.PurposeAgents,
	})
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func(ctx context.Context) error { return c.Files.DeleteWithContext(ctx, file.ID) })
	fmt.Fprintf(out, "Uploaded file, ID: %s\n", file.ID)

	vs, err := c.VectorStores.CreateWithContext(ctx, foundry.VectorStoreParams{
		Name:    opts.VectorStoreName,
		FileIDs: []string{file.ID},
	})
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func(ctx context.Context) error { return c.VectorStores.DeleteWithContext(ctx, vs.ID) })
	printSection(out, "Vector Store Info")
	fmt.Fprintln(out, vectorStoreTable(vs))

	agent, err := c.Agents.CreateWithContext(ctx, foundry.AgentParams{
		Name:          opts.Name,
		Instructions:  opts.Instructions,
		Tools:         []foundry.Tool{foundry.FileSearchTool()},
		ToolResources: foundry.FileSearchResources(vs.ID),
	})
	if err != nil {
		return err
	}
	agentID = agent.ID
	cleanups = append(cleanups, func(ctx context.Context) error { return c.Agents.DeleteWithContext(ctx, agent.ID) })

	thread, err := c.Threads.CreateWithContext(ctx, foundry.ThreadParams{
		ToolResources: foundry.FileSearchResources(vs.ID),
	})
	if err != nil {
		return err
	}

	printSection(out, "User Prompt")
	fmt.Fprintln(out, opts.Prompt)
	if _, err := c.Messages.CreateWithContext(ctx, thread.ID, foundry.MessageParams{Role: foundry.RoleUser, Content: opts.Prompt}); err != nil {
		return err
	}

	printSection(out, "Processing...")
	if err := streamRun(ctx, out, c, thread.ID, agent.ID); err != nil {
		return err
	}

	reply, err := foundry.FindByRole(c.Messages.All(ctx, thread.ID, foundry.MessageListParams{}), foundry.RoleAssistant)
	printSection(out, "Response")
	switch {
	case err == nil:
		printReply(out, &reply)
	case errors.Is(err, foundry.ErrMessageNotFound):
		printReply(out, nil)
	default:
		return err
	}
	return nil
}

// streamRun starts a streamed run and reports its terminal event.
func streamRun(ctx context.Context, out io.Writer, c *foundry.Client, threadID, agentID string) error {
	stream, err := c.Runs.Stream(ctx, threadID, foundry.RunParams{AgentID: agentID})
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		ev := stream.Event()
		switch ev.Name {
		case foundry.EventRunCompleted:
			fmt.Fprintln(out, defaultTheme.successStyle().Render("Run completed successfully"))
		case foundry.EventRunFailed:
			msg := string(ev.Data)
			if run, err := ev.Run(); err == nil && run.LastError != nil {
				msg = run.LastError.Code + ": " + run.LastError.Message
			}
			fmt.Fprintln(out, defaultTheme.errorStyle().Render("Run failed: "+msg))
		}
	}
	return stream.Err()
}

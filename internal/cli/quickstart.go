package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	quickstartSystem string
	quickstartPrompt string
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Run one chat completion against the deployment",
	Long: `Send a system and a user prompt to the configured deployment and print
the first answer.

Examples:
  foundry-demo quickstart
  foundry-demo quickstart --prompt "Summarise the water cycle"`,
	Args: cobra.NoArgs,
	RunE: runQuickstart,
}

func init() {
	quickstartCmd.Flags().StringVar(&quickstartSystem, "system", "You are a helpful writing assistant", "system prompt")
	quickstartCmd.Flags().StringVarP(&quickstartPrompt, "prompt", "p", "Write me a poem about flowers", "user prompt")
}

func runQuickstart(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Starting inference...")
	fmt.Fprintf(out, "Deployment: %s\n", client.Config.Deployment)
	fmt.Fprintf(out, "API Version: %s\n", client.Config.OpenAIAPIVersion)

	answer, err := client.Inference.Ask(cmd.Context(), quickstartSystem, quickstartPrompt)
	if err != nil {
		return err
	}
	printTitle(out, "SUCCESS")
	fmt.Fprintln(out, answer)
	return nil
}

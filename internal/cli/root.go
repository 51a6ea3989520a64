// Package cli provides the command-line interface for foundry-demo.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	foundry "github.com/foundry-agents/foundry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	envFile      string
	configFile   string
	endpoint     string
	deployment   string
	pollInterval time.Duration
	pollTimeout  time.Duration

	logger *zap.Logger
	client *foundry.Client
)

// defaultPollTimeout bounds every wait started from the CLI.
const defaultPollTimeout = 10 * time.Minute

var rootCmd = &cobra.Command{
	Use:   "foundry-demo",
	Short: "Demonstrations of the Azure AI Foundry agent service",
	Long: `foundry-demo runs small end-to-end flows against an Azure AI Foundry
project: a plain chat completion, a chat with a temporary agent, and a
file_search agent over an uploaded document.

Configuration is read from flags, the environment and an optional .env file:
  AZURE_AI_AGENT_ENDPOINT / PROJECT_ENDPOINT   project endpoint
  AZURE_OPENAI_API_DEPLOYMENT_NAME             model deployment
  AZURE_OPENAI_API_KEY                         optional key (Entra ID otherwise)`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		params := foundry.ConfigParams{
			File:       configFile,
			Endpoint:   endpoint,
			Deployment: deployment,
			Logger:     logger,
		}
		if cmd.Flags().Changed("poll-interval") {
			params.PollInterval = pollInterval
		}
		if cmd.Flags().Changed("poll-timeout") {
			params.PollMaxWait = pollTimeout
		}
		cfg, err := foundry.LoadConfigWithParams(params)
		if err != nil {
			return err
		}
		if cfg.Poll.MaxWait == 0 {
			cfg.Poll.MaxWait = defaultPollTimeout
		}
		client, err = foundry.NewClientWithConfig(cfg)
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			client.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx; cancelling ctx stops
// any wait in progress.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "project endpoint (overrides the environment)")
	rootCmd.PersistentFlags().StringVar(&deployment, "deployment", "", "model deployment name (overrides the environment)")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", foundry.DefaultPollInterval, "delay between run status queries")
	rootCmd.PersistentFlags().DurationVar(&pollTimeout, "poll-timeout", defaultPollTimeout, "maximum time to wait for a run")

	rootCmd.AddCommand(quickstartCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(fileAgentCmd)
}

// loadEnvFile loads a dotenv file. A missing file is not an error;
// variables already set in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

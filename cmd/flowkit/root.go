package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/flowkit/internal/cli"
	"github.com/spf13/cobra"
)

var globalOpts cli.Options

var rootCmd = &cobra.Command{
	Use:   "flowkit",
	Short: "flowkit compiles conversation flows into agent tools",
	Long: `flowkit reads a conversation flow (a YAML/JSON file, or a directory of Markdown,
JSON and YAML node documents) and turns every edge into a tool an agent can call.

Inspect the result with 'tools', 'model' and 'graph', lint it with 'validate', and
serve it to agents with 'mcp' or 'serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Config file (default: flowkit.yaml, flowkit.yml or flowkit.json if present)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.Flow, "flow", "f", "", "Flow definition file or directory (default: .)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Debug, "debug", false, "Shorthand for --log-level debug")
}

// newRuntime resolves config and flags and loads the flow. A positional path, when
// given, takes the place of --flow.
func newRuntime(ctx context.Context, args []string) (*cli.Runtime, error) {
	opts := globalOpts
	if len(args) > 0 && opts.Flow == "" {
		opts.Flow = args[0]
	}
	cfg, err := opts.Resolve()
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing flowkit: %w", err)
	}
	return rt, nil
}

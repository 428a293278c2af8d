// Package cmd implements the audioagents CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// Execute runs the root command.
func Execute() {
	root := &cobra.Command{
		Use:   "audioagents",
		Short: "Two-agent research assistant with spoken responses",
		Long: `audioagents runs a researcher/validator agent pair over web search.
The researcher answers your question from live search results; the
validator critiques the findings and scores its confidence. Both agents
speak their summaries aloud when a TTS provider is configured.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default audioagents.json5)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(chatCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(threadsCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// resolveConfigPath returns the --config value, the AUDIOAGENTS_CONFIG env
// var, or the default path, in that order.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("AUDIOAGENTS_CONFIG")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/audioagents/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Run: func(cmd *cobra.Command, args []string) {
			runConfigShow()
		},
	}
}

func runConfigShow() {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	redact(&cfg.LLM.APIKey)
	redact(&cfg.Search.Tavily.APIKey)
	redact(&cfg.TTS.ElevenLabs.APIKey)
	redact(&cfg.TTS.Groq.APIKey)
	redact(&cfg.TTS.OpenAI.APIKey)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(cfg)
}

// redact keeps a short prefix so key mixups stay debuggable.
func redact(key *string) {
	if *key == "" {
		return
	}
	prefix := *key
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	*key = prefix + strings.Repeat("*", 8)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/audioagents/internal/config"
	"github.com/nextlevelbuilder/audioagents/internal/store"
)

func threadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Inspect persisted conversation threads",
	}
	cmd.AddCommand(threadsListCmd())
	cmd.AddCommand(threadsShowCmd())
	return cmd
}

func threadsListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all conversation threads",
		Run: func(cmd *cobra.Command, args []string) {
			runThreadsList(jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runThreadsList(jsonOutput bool) {
	a := mustBuildApp()
	defer a.Close()

	ctx := context.Background()
	ids, err := a.store.ListThreadIDs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		json.NewEncoder(os.Stdout).Encode(ids)
		return
	}

	if len(ids) == 0 {
		fmt.Println("No threads.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tTOPIC\tMESSAGES\tVALIDATED\tSCORE")
	for _, id := range ids {
		user, topic, ok := store.ParseThreadID(id)
		if !ok {
			continue
		}
		state, err := a.store.Load(ctx, id)
		if err != nil {
			continue
		}
		validated := "no"
		if state.IsValidated {
			validated = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n",
			user, topic, len(state.Messages), validated, state.Metadata.ConfidenceScore)
	}
	w.Flush()
}

func threadsShowCmd() *cobra.Command {
	var (
		user  string
		topic string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the transcript of one thread",
		Run: func(cmd *cobra.Command, args []string) {
			runThreadsShow(user, topic)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user name")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic")
	return cmd
}

func runThreadsShow(user, topic string) {
	a := mustBuildApp()
	defer a.Close()

	threadID := store.NormalizeThreadID(user, topic)
	state, err := a.store.Load(context.Background(), threadID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Thread: %s\n", threadID)
	if state.Metadata.HasValidation {
		fmt.Printf("Last score: %d%% (validated: %v)\n",
			state.Metadata.ConfidenceScore, state.Metadata.IsValidated)
	}
	fmt.Println()
	for _, m := range state.Messages {
		fmt.Printf("[%s] %s\n\n", m.Role, m.Content)
	}
}

func mustBuildApp() *app {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	a, err := buildApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/audioagents/internal/config"
	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/store"
)

func chatCmd() *cobra.Command {
	var (
		user    string
		topic   string
		message string
		noAudio bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the research agents interactively or one-shot",
		Long: `Start an interactive research session, or send a single question.

Examples:
  audioagents chat                           # Interactive session with pickers
  audioagents chat -u ada -t "quantum"       # Named user and topic
  audioagents chat -m "What is entropy?"     # One-shot question
  audioagents chat --no-audio                # Skip audio playback`,
		Run: func(cmd *cobra.Command, args []string) {
			runChat(user, topic, message, noAudio)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "user name (prompted when omitted)")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "conversation topic (prompted when omitted)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "one-shot question (omit for interactive mode)")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "do not play synthesized audio")

	return cmd
}

func runChat(user, topic, message string, noAudio bool) {
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
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewReader(os.Stdin)

	if user == "" {
		user = pickUser(ctx, reader, a)
	}
	if topic == "" {
		topic = pickTopic(ctx, reader, a, user)
	}

	threadID := store.NormalizeThreadID(user, topic)
	printTranscriptPreview(ctx, a, threadID)

	if message != "" {
		runTurn(ctx, a, threadID, message, noAudio)
		return
	}

	fmt.Printf("\nSession %s. Ask a question (or \"quit\" to exit)\n", threadID)
	for {
		fmt.Print("\n> ")
		line, err := readLine(reader)
		if err != nil {
			return
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Println("Bye.")
			return
		}
		if !runTurn(ctx, a, threadID, line, noAudio) {
			return
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// pickUser lists known users and lets the user pick by number or type a
// new name. Empty input falls back to the default user.
func pickUser(ctx context.Context, reader *bufio.Reader, a *app) string {
	ids, err := a.store.ListThreadIDs(ctx)
	if err != nil {
		ids = nil
	}
	users := store.ListUsers(ids)

	if len(users) > 0 {
		fmt.Println("Known users:")
		for i, u := range users {
			fmt.Printf("  %d. %s\n", i+1, u)
		}
		fmt.Print("Pick a number or type a name (Enter for default): ")
	} else {
		fmt.Print("Your name (Enter for default): ")
	}

	line, err := readLine(reader)
	if err != nil || line == "" {
		return store.DefaultUser
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(users) {
		return users[n-1]
	}
	return line
}

// pickTopic lists the user's existing topics so a session can resume where
// it left off.
func pickTopic(ctx context.Context, reader *bufio.Reader, a *app, user string) string {
	ids, err := a.store.ListThreadIDs(ctx)
	if err != nil {
		ids = nil
	}
	topics := store.ListTopicsForUser(ids, user)

	if len(topics) > 0 {
		fmt.Printf("Topics for %s:\n", user)
		for i, t := range topics {
			fmt.Printf("  %d. %s\n", i+1, t)
		}
		fmt.Print("Pick a number or type a new topic (Enter for general): ")
	} else {
		fmt.Print("Topic (Enter for general): ")
	}

	line, err := readLine(reader)
	if err != nil || line == "" {
		return store.DefaultTopic
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(topics) {
		return topics[n-1]
	}
	return line
}

// printTranscriptPreview shows the tail of a resumed conversation.
func printTranscriptPreview(ctx context.Context, a *app, threadID string) {
	msgs, err := a.pipe.History(ctx, threadID)
	if err != nil || len(msgs) == 0 {
		return
	}

	const previewLen = 4
	start := 0
	if len(msgs) > previewLen {
		start = len(msgs) - previewLen
		fmt.Printf("\nResuming conversation (%d earlier messages)...\n", start)
	} else {
		fmt.Println("\nResuming conversation...")
	}
	for _, m := range msgs[start:] {
		label := "Agent"
		if m.Role == conversation.RoleUser {
			label = "You"
		} else if m.Role == conversation.RoleSystem {
			label = "Summary"
		}
		fmt.Printf("  [%s] %s\n", label, clip(m.Content, 120))
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// runTurn executes one question and prints both agent responses. Returns
// false when the context is done.
func runTurn(ctx context.Context, a *app, threadID, question string, noAudio bool) bool {
	fmt.Println("\nResearching...")
	turn, err := a.pipe.Run(ctx, threadID, question)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		fmt.Fprintf(os.Stderr, "Turn failed: %v\n", err)
		return true
	}

	fmt.Printf("\n--- Researcher ---\n%s\n", turn.Research.Content)
	fmt.Printf("\n--- Validator (%d%% confidence", turn.Validation.ConfidenceScore)
	if turn.Validation.IsValidated {
		fmt.Print(", validated")
	}
	fmt.Printf(") ---\n%s\n", turn.Validation.Assessment)

	if !noAudio {
		playAudio(ctx, turn.Research.Audio, a.tts.Format())
		playAudio(ctx, turn.Validation.Audio, a.tts.Format())
	}
	return true
}

// playAudio writes a clip to a temp file and plays it with mpv or ffplay,
// whichever is installed. Missing players are not an error; the text
// responses already printed.
func playAudio(ctx context.Context, data []byte, format string) {
	if len(data) == 0 {
		return
	}

	f, err := os.CreateTemp("", "audioagents-*."+format)
	if err != nil {
		return
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return
	}
	f.Close()

	var cmd *exec.Cmd
	if _, err := exec.LookPath("mpv"); err == nil {
		cmd = exec.CommandContext(ctx, "mpv", "--no-video", "--really-quiet", path)
	} else if _, err := exec.LookPath("ffplay"); err == nil {
		cmd = exec.CommandContext(ctx, "ffplay", "-autoexit", "-nodisp", "-loglevel", "quiet", path)
	} else {
		// No player installed; leave the clip on disk for the user.
		fmt.Printf("(audio saved to %s; install mpv or ffplay for playback)\n", path)
		return
	}
	cmd.Run()
	os.Remove(path)
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/audioagents/internal/config"
	"github.com/nextlevelbuilder/audioagents/internal/httpapi"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API server",
		Long: `Serve the agent pipeline over HTTP. Turns run via POST /api/turn or
the chat.send WebSocket method; stage events stream to all connected
WebSocket clients. The config file is watched and reloaded on change
(address and store changes need a restart).`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(addr string) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	a, err := buildApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := httpapi.NewServer(cfg.Server, a.pipe, a.store, a.tts.MimeType())

	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		watcher, werr := config.NewWatcher(cfgPath)
		if werr != nil {
			slog.Warn("config watcher unavailable", "error", werr)
		} else {
			watcher.OnChange(func(newCfg *config.Config) {
				a.ctxMgr.SetLimits(newCfg.Context.MaxExchanges, newCfg.Context.MaxTokens)
				a.validator.SetThreshold(newCfg.Validator.ConfidenceThreshold)
				srv.Reconfigure(newCfg.Server)
				slog.Info("config applied; restart for address, store or provider changes",
					"max_exchanges", newCfg.Context.MaxExchanges,
					"max_tokens", newCfg.Context.MaxTokens,
					"confidence_threshold", newCfg.Validator.ConfidenceThreshold)
			})
			if err := watcher.Start(); err != nil {
				slog.Warn("config watcher failed to start", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

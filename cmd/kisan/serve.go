package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kisanmitra/kisan/internal/agent"
	"github.com/kisanmitra/kisan/internal/config"
	"github.com/kisanmitra/kisan/internal/llm"
	"github.com/kisanmitra/kisan/internal/server"
	"github.com/kisanmitra/kisan/internal/storage/sqlite"
	"github.com/kisanmitra/kisan/internal/tools"
	"github.com/kisanmitra/kisan/internal/weather"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the advisor HTTP server",
	Long: `Start the Kisan Mitra HTTP server.

POST /api/chat streams the advisor's answer as server-sent events; the
X-Tool-Calls response header lists the tools the model invoked.

Examples:
  kisan serve
  kisan serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	if cfg.Storage.Seed {
		if err := store.Seed(cmd.Context()); err != nil {
			return fmt.Errorf("seeding storage: %w", err)
		}
	}

	executor, err := tools.NewExecutor(store, weather.New(cfg.Weather.BaseURL, cfg.Weather.APIKey))
	if err != nil {
		return fmt.Errorf("initializing tools: %w", err)
	}
	executor.SetTimeout(cfg.Limits.ToolTimeout)

	client := llm.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Model)
	orchestrator := agent.New(client, executor)

	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	srv := server.New(cfg, orchestrator, executor.Definitions())

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	if err := srv.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

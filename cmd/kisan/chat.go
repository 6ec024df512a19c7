package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/kisanmitra/kisan/internal/agent"
	"github.com/kisanmitra/kisan/internal/config"
	"github.com/kisanmitra/kisan/internal/llm"
	"github.com/kisanmitra/kisan/internal/storage/sqlite"
	"github.com/kisanmitra/kisan/internal/tools"
	"github.com/kisanmitra/kisan/internal/weather"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive advisor session in the terminal",
	Long: `Talk to the advisor without running the HTTP server. The same
orchestrator and tools are used; answers stream to the terminal.

Examples:
  kisan chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging("warn") // keep the REPL quiet

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
	orchestrator.OnToolCall = func(name string, args map[string]any) {
		fmt.Printf("  [%s...]\n", name)
	}

	fmt.Println("Kisan Mitra - Expert Agricultural Advisor")
	fmt.Printf("Model: %s\n", cfg.Gateway.Model)
	fmt.Println("Type your question, or 'exit' to quit.")

	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	var history []llm.Message

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		history = append(history, llm.UserMessage(input))

		answer, err := runTurn(cmd.Context(), orchestrator, history)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			// Drop the failed user turn so the history stays consistent.
			history = history[:len(history)-1]
			continue
		}

		history = append(history, llm.AssistantMessage(answer))
	}
}

// runTurn drives one conversation turn, printing deltas as they stream.
func runTurn(ctx context.Context, orchestrator *agent.Orchestrator, history []llm.Message) (string, error) {
	turn, err := orchestrator.Prepare(ctx, history)
	if err != nil {
		return "", err
	}

	var answer strings.Builder
	err = turn.Stream(ctx, func(delta llm.StreamDelta) {
		if delta.Content != "" {
			fmt.Print(delta.Content)
			answer.WriteString(delta.Content)
		}
	})
	fmt.Println()
	if err != nil {
		return "", err
	}
	return answer.String(), nil
}

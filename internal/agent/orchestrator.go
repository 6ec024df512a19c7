package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/llm"
)

// ToolExecutor runs a single validated tool call, returning its result as a
// JSON string. Implementations must never fail the call: errors become an
// {"error": ...} payload.
type ToolExecutor interface {
	Definitions() []llm.ToolDef
	Execute(ctx context.Context, call llm.ToolCall) string
}

// Orchestrator drives one conversation turn: a first model call with tools
// enabled, concurrent execution of any requested tool calls, then a
// streaming second call carrying the tool results. It keeps no state
// between turns; every request is independent.
type Orchestrator struct {
	llm   llm.Client
	tools ToolExecutor

	// OnToolCall, if set, is invoked for each tool call before execution.
	OnToolCall func(name string, args map[string]any)
}

// New creates an Orchestrator.
func New(client llm.Client, tools ToolExecutor) *Orchestrator {
	return &Orchestrator{
		llm:   client,
		tools: tools,
	}
}

// Turn is a prepared conversation turn, ready to stream. ToolNames lists the
// tools the model invoked (empty when none), available before streaming
// starts so callers can surface it out of band.
type Turn struct {
	ToolNames []string

	o        *Orchestrator
	messages []llm.Message
}

// Prepare assembles the conversation, makes the first model call with tools
// enabled, and — if the model requested tool calls — executes them all
// concurrently and appends their results. The returned Turn streams the
// final answer.
func (o *Orchestrator) Prepare(ctx context.Context, history []llm.Message) (*Turn, error) {
	messages, err := Assemble(history)
	if err != nil {
		return nil, err
	}

	resp, err := o.llm.ChatCompletion(ctx, messages, o.tools.Definitions())
	if err != nil {
		return nil, fmt.Errorf("first model call: %w", err)
	}

	calls := resp.Message.ToolCalls
	if len(calls) == 0 {
		// No tools requested: the streaming call repeats the same prompt.
		// The first response is discarded because it was made tools-enabled
		// and non-streaming; re-requesting keeps the two paths simple.
		return &Turn{o: o, messages: messages}, nil
	}

	log.Info().Int("count", len(calls)).Msg("model requested tool calls")

	turn := &Turn{o: o, messages: append(messages, resp.Message)}
	for _, tc := range calls {
		turn.ToolNames = append(turn.ToolNames, tc.Name)
		if o.OnToolCall != nil {
			o.OnToolCall(tc.Name, tc.Args)
		}
	}

	// Execute concurrently; results are indexed by position so the message
	// list is deterministic regardless of completion order. Each result is
	// correlated to its call via tool_call_id.
	results := make([]llm.Message, len(calls))
	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc llm.ToolCall) {
			defer wg.Done()
			// A panicking executor must not take down the process; the
			// router's recovery middleware cannot reach this goroutine.
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("tool", tc.Name).Interface("panic", r).Msg("tool call panicked")
					results[i] = llm.ToolResultMessage(tc.ID, `{"error":"tool execution failed"}`)
				}
			}()
			results[i] = llm.ToolResultMessage(tc.ID, o.tools.Execute(ctx, tc))
		}(i, tc)
	}
	wg.Wait()

	turn.messages = append(turn.messages, results...)
	return turn, nil
}

// Stream makes the final streaming model call and feeds deltas to handler.
// Tools are disabled for this call: a turn is bounded to a single tool
// round trip.
func (t *Turn) Stream(ctx context.Context, handler llm.StreamHandler) error {
	_, err := t.o.llm.ChatCompletionStream(ctx, t.messages, nil, handler)
	if err != nil {
		return fmt.Errorf("streaming model call: %w", err)
	}
	return nil
}

package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kisanmitra/kisan/internal/llm"
)

// fakeClient scripts the model's answers and records what it was asked.
type fakeClient struct {
	mu sync.Mutex

	completion    llm.Response
	completionErr error
	streamContent []string
	streamErr     error

	completionCalls    int
	completionMessages []llm.Message
	completionTools    []llm.ToolDef
	streamCalls        int
	streamMessages     []llm.Message
	streamTools        []llm.ToolDef
}

func (f *fakeClient) ChatCompletion(ctx context.Context, messages []llm.Message, tools []llm.ToolDef) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completionCalls++
	f.completionMessages = messages
	f.completionTools = tools
	if f.completionErr != nil {
		return nil, f.completionErr
	}
	resp := f.completion
	return &resp, nil
}

func (f *fakeClient) ChatCompletionStream(ctx context.Context, messages []llm.Message, tools []llm.ToolDef, handler llm.StreamHandler) (*llm.Response, error) {
	f.mu.Lock()
	f.streamCalls++
	f.streamMessages = messages
	f.streamTools = tools
	content := f.streamContent
	f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	var full strings.Builder
	for _, c := range content {
		handler(llm.StreamDelta{Content: c, Raw: []byte(`{"choices":[]}`)})
		full.WriteString(c)
	}
	return &llm.Response{Message: llm.AssistantMessage(full.String())}, nil
}

// stubExecutor returns canned results per tool name, optionally after a delay.
type stubExecutor struct {
	defs    []llm.ToolDef
	results map[string]string
	delay   time.Duration
}

func (s *stubExecutor) Definitions() []llm.ToolDef { return s.defs }

func (s *stubExecutor) Execute(ctx context.Context, call llm.ToolCall) string {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if r, ok := s.results[call.Name]; ok {
		return r
	}
	return `{"ok":true}`
}

func history(contents ...string) []llm.Message {
	var msgs []llm.Message
	for _, c := range contents {
		msgs = append(msgs, llm.UserMessage(c))
	}
	return msgs
}

func TestPrepareValidatesBeforeAnyModelCall(t *testing.T) {
	client := &fakeClient{}
	o := New(client, &stubExecutor{})

	tests := []struct {
		name    string
		history []llm.Message
		wantErr error
	}{
		{"empty", nil, ErrNoMessages},
		{"too many", history(make([]string, MaxMessages+1)...), ErrTooManyMessages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Prepare(context.Background(), tt.history)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Prepare() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("oversized message", func(t *testing.T) {
		_, err := o.Prepare(context.Background(), history(strings.Repeat("x", MaxContentLength+1)))
		var tooLong *MessageTooLongError
		if !errors.As(err, &tooLong) {
			t.Fatalf("Prepare() error = %v, want MessageTooLongError", err)
		}
	})

	if client.completionCalls != 0 {
		t.Errorf("invalid input reached the model: %d calls", client.completionCalls)
	}
}

func TestPrepareDirectAnswer(t *testing.T) {
	client := &fakeClient{
		completion:    llm.Response{Message: llm.AssistantMessage("Namaste!")},
		streamContent: []string{"Namaste", "!"},
	}
	o := New(client, &stubExecutor{defs: []llm.ToolDef{{Name: "get_weather"}}})

	turn, err := o.Prepare(context.Background(), history("hello"))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(turn.ToolNames) != 0 {
		t.Errorf("ToolNames = %v, want none", turn.ToolNames)
	}
	if len(client.completionTools) != 1 {
		t.Errorf("first call should advertise tools, got %v", client.completionTools)
	}

	var got strings.Builder
	if err := turn.Stream(context.Background(), func(d llm.StreamDelta) { got.WriteString(d.Content) }); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got.String() != "Namaste!" {
		t.Errorf("streamed %q", got.String())
	}
	if client.streamTools != nil {
		t.Errorf("streaming call must not advertise tools, got %v", client.streamTools)
	}
}

func TestPrepareExecutesToolsAndCorrelatesResults(t *testing.T) {
	client := &fakeClient{
		completion: llm.Response{Message: llm.Message{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call_w", Name: "get_weather", Args: map[string]any{"location": "Indore"}},
				{ID: "call_m", Name: "get_market_prices", Args: map[string]any{"commodity": "Wheat"}},
			},
		}},
	}
	exec := &stubExecutor{results: map[string]string{
		"get_weather":       `{"current":{"temperature":"31°C"}}`,
		"get_market_prices": `{"commodity":"Wheat"}`,
	}}
	o := New(client, exec)

	var notified []string
	o.OnToolCall = func(name string, args map[string]any) { notified = append(notified, name) }

	turn, err := o.Prepare(context.Background(), history("weather and wheat price in Indore?"))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if len(turn.ToolNames) != 2 || turn.ToolNames[0] != "get_weather" || turn.ToolNames[1] != "get_market_prices" {
		t.Errorf("ToolNames = %v", turn.ToolNames)
	}
	if len(notified) != 2 {
		t.Errorf("OnToolCall fired %d times, want 2", len(notified))
	}

	// system + user + assistant(tool_calls) + 2 tool results
	msgs := turn.messages
	if len(msgs) != 5 {
		t.Fatalf("prepared %d messages, want 5", len(msgs))
	}
	if msgs[2].Role != llm.RoleAssistant || len(msgs[2].ToolCalls) != 2 {
		t.Errorf("assistant tool-call message not preserved: %+v", msgs[2])
	}
	for i, want := range []struct{ id, result string }{
		{"call_w", `{"current":{"temperature":"31°C"}}`},
		{"call_m", `{"commodity":"Wheat"}`},
	} {
		got := msgs[3+i]
		if got.Role != llm.RoleTool || got.ToolCallID != want.id || got.Content != want.result {
			t.Errorf("tool result %d = %+v, want id %s content %s", i, got, want.id, want.result)
		}
	}
}

func TestPrepareToolFailureIsNotFatal(t *testing.T) {
	client := &fakeClient{
		completion: llm.Response{Message: llm.Message{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "get_weather", Args: map[string]any{"location": "Indore"}},
			},
		}},
		streamContent: []string{"Sorry, weather is unavailable right now."},
	}
	exec := &stubExecutor{results: map[string]string{
		"get_weather": `{"error":"Unable to fetch weather information"}`,
	}}
	o := New(client, exec)

	turn, err := o.Prepare(context.Background(), history("weather?"))
	if err != nil {
		t.Fatalf("a failed tool must not fail the turn: %v", err)
	}

	last := turn.messages[len(turn.messages)-1]
	if !strings.Contains(last.Content, "Unable to fetch weather information") {
		t.Errorf("tool failure payload missing: %+v", last)
	}

	// The second call still happens and streams.
	if err := turn.Stream(context.Background(), func(llm.StreamDelta) {}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if client.streamCalls != 1 {
		t.Errorf("streamCalls = %d", client.streamCalls)
	}
}

// panickyExecutor blows up on one tool name and answers normally otherwise.
type panickyExecutor struct {
	panicOn string
}

func (p *panickyExecutor) Definitions() []llm.ToolDef { return nil }

func (p *panickyExecutor) Execute(ctx context.Context, call llm.ToolCall) string {
	if call.Name == p.panicOn {
		panic("collaborator blew up")
	}
	return `{"ok":true}`
}

func TestPrepareSurvivesPanickingTool(t *testing.T) {
	client := &fakeClient{
		completion: llm.Response{Message: llm.Message{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "get_weather"},
				{ID: "call_2", Name: "get_market_prices"},
			},
		}},
		streamContent: []string{"partial answer"},
	}
	o := New(client, &panickyExecutor{panicOn: "get_weather"})

	turn, err := o.Prepare(context.Background(), history("weather and prices?"))
	if err != nil {
		t.Fatalf("a panicking tool must not fail the turn: %v", err)
	}

	weatherResult := turn.messages[3]
	if weatherResult.ToolCallID != "call_1" || !strings.Contains(weatherResult.Content, "error") {
		t.Errorf("panic not converted to an error payload: %+v", weatherResult)
	}
	marketResult := turn.messages[4]
	if marketResult.ToolCallID != "call_2" || marketResult.Content != `{"ok":true}` {
		t.Errorf("healthy tool result lost: %+v", marketResult)
	}

	if err := turn.Stream(context.Background(), func(llm.StreamDelta) {}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
}

func TestPrepareRunsToolsConcurrently(t *testing.T) {
	client := &fakeClient{
		completion: llm.Response{Message: llm.Message{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "get_weather"},
				{ID: "call_2", Name: "get_market_prices"},
				{ID: "call_3", Name: "search_schemes"},
			},
		}},
	}
	o := New(client, &stubExecutor{delay: 100 * time.Millisecond})

	start := time.Now()
	if _, err := o.Prepare(context.Background(), history("everything about Indore")); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	elapsed := time.Since(start)

	// Sequential execution would take at least 300ms.
	if elapsed > 250*time.Millisecond {
		t.Errorf("tool calls took %v; expected concurrent execution", elapsed)
	}
}

func TestPrepareWrapsFirstCallError(t *testing.T) {
	gwErr := &llm.GatewayError{StatusCode: 429, Body: `{"error":"rate limited"}`}
	client := &fakeClient{completionErr: gwErr}
	o := New(client, &stubExecutor{})

	_, err := o.Prepare(context.Background(), history("hello"))
	var got *llm.GatewayError
	if !errors.As(err, &got) || got.StatusCode != 429 {
		t.Fatalf("Prepare() error = %v, want wrapped GatewayError 429", err)
	}
}

func TestStreamWrapsError(t *testing.T) {
	client := &fakeClient{
		completion: llm.Response{Message: llm.AssistantMessage("hi")},
		streamErr:  &llm.GatewayError{StatusCode: 402, Body: `{"error":"payment required"}`},
	}
	o := New(client, &stubExecutor{})

	turn, err := o.Prepare(context.Background(), history("hello"))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	err = turn.Stream(context.Background(), func(llm.StreamDelta) {})
	var got *llm.GatewayError
	if !errors.As(err, &got) || got.StatusCode != 402 {
		t.Fatalf("Stream() error = %v, want wrapped GatewayError 402", err)
	}
}

func TestAssembleCountsCharactersNotBytes(t *testing.T) {
	// Devanagari is three bytes per rune in UTF-8; a message at the character
	// limit is three times the limit in bytes and must still pass.
	atLimit := strings.Repeat("क", MaxContentLength)
	if _, err := Assemble(history(atLimit)); err != nil {
		t.Fatalf("message of %d characters rejected: %v", MaxContentLength, err)
	}

	_, err := Assemble(history(atLimit + "क"))
	var tooLong *MessageTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("Assemble() error = %v, want MessageTooLongError", err)
	}
	if tooLong.Length != MaxContentLength+1 {
		t.Errorf("Length = %d, want %d characters", tooLong.Length, MaxContentLength+1)
	}
}

func TestAssemblePrependsSystemPrompt(t *testing.T) {
	msgs, err := Assemble(history("mera gehu kab bechna chahiye?"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem || !strings.Contains(msgs[0].Content, "Kisan Mitra") {
		t.Errorf("system prompt not first: %+v", msgs[0])
	}
	if msgs[1].Role != llm.RoleUser {
		t.Errorf("user message not preserved: %+v", msgs[1])
	}
}

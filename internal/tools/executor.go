package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/llm"
	"github.com/kisanmitra/kisan/internal/storage"
	"github.com/kisanmitra/kisan/internal/weather"
)

const defaultToolTimeout = 10 * time.Second

// Executor runs validated tool calls against their collaborators. All state
// is fixed at construction (registry, store, weather client, static tables),
// so a single Executor is safe for concurrent use across requests.
type Executor struct {
	registry  *Registry
	store     storage.Store
	weather   *weather.Client
	gazetteer *Gazetteer
	crops     *CropKnowledge
	timeout   time.Duration
}

// NewExecutor builds an executor over the default registry, loading the
// static gazetteer and crop-knowledge tables once.
func NewExecutor(store storage.Store, wc *weather.Client) (*Executor, error) {
	gaz, err := LoadGazetteer()
	if err != nil {
		return nil, err
	}
	crops, err := LoadCropKnowledge()
	if err != nil {
		return nil, err
	}
	return &Executor{
		registry:  DefaultRegistry(),
		store:     store,
		weather:   wc,
		gazetteer: gaz,
		crops:     crops,
		timeout:   defaultToolTimeout,
	}, nil
}

// SetTimeout overrides the per-tool-call timeout.
func (e *Executor) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// Definitions returns the tool definitions to advertise to the model.
func (e *Executor) Definitions() []llm.ToolDef {
	return e.registry.Definitions()
}

// Execute runs one tool call and returns its result as a JSON string. It
// never returns an error: validation failures, collaborator failures,
// timeouts, and panics all become an {"error": ...} payload so a single bad
// call cannot abort the turn.
func (e *Executor) Execute(ctx context.Context, call llm.ToolCall) (result string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", call.Name).Interface("panic", r).Msg("tool panicked")
			result = errorJSON("tool execution failed")
		}
	}()

	if err := e.registry.Validate(call.Name, call.Args); err != nil {
		log.Warn().Str("tool", call.Name).Err(err).Msg("tool call rejected")
		return errorJSON(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log.Debug().Str("tool", call.Name).Interface("args", call.Args).Msg("executing tool")

	switch call.Name {
	case ToolGetWeather:
		return e.executeGetWeather(ctx, call.Args)
	case ToolGetMarketPrices:
		return e.executeGetMarketPrices(ctx, call.Args)
	case ToolSearchSchemes:
		return e.executeSearchSchemes(ctx, call.Args)
	case ToolAnalyzeCropAdvice:
		return e.executeAnalyzeCropAdvice(call.Args)
	default:
		// Unreachable once Validate passed, but the switch stays total.
		return errorJSON("unknown tool: " + call.Name)
	}
}

// decodeArgs converts the model's argument map into a typed struct via a
// JSON round trip.
func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func errorJSON(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

func marshalResult(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return errorJSON("failed to encode tool result")
	}
	return string(out)
}

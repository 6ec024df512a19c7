package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
)

// ChatCompletionStream sends a streaming chat completion request. The
// handler is called with each chunk as it arrives; StreamDelta.Raw is the
// chunk's unmodified JSON so the caller can relay the gateway's native
// event format without re-serializing. Returns the accumulated response
// once the upstream stream closes.
func (c *OpenAICompatClient) ChatCompletionStream(ctx context.Context, messages []Message, tools []ToolDef, handler StreamHandler) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(messages),
	}

	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if handler != nil {
			delta := StreamDelta{Raw: []byte(chunk.RawJSON())}
			if len(chunk.Choices) > 0 {
				delta.Content = chunk.Choices[0].Delta.Content
			}
			handler(delta)
		}
	}

	if err := stream.Err(); err != nil {
		return nil, wrapGatewayError(err)
	}

	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	choice := acc.Choices[0]
	resp := &Response{
		Message: Message{
			Role:    RoleAssistant,
			Content: choice.Message.Content,
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			args = map[string]any{"_raw": tc.Function.Arguments}
		}
		resp.Message.ToolCalls = append(resp.Message.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return resp, nil
}

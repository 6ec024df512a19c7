package agent

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/kisanmitra/kisan/internal/llm"
)

// Bounds on an incoming conversation turn. These cap token cost and stop
// oversized payloads before any upstream call is made.
const (
	MaxMessages      = 50
	MaxContentLength = 50000
)

var (
	ErrNoMessages      = errors.New("conversation is empty")
	ErrTooManyMessages = fmt.Errorf("conversation exceeds %d messages", MaxMessages)
)

// MessageTooLongError reports which message exceeded the content limit.
type MessageTooLongError struct {
	Index  int
	Length int
}

func (e *MessageTooLongError) Error() string {
	return fmt.Sprintf("message %d is %d characters (limit %d)", e.Index, e.Length, MaxContentLength)
}

const systemPrompt = `You are Kisan Mitra's Expert Agricultural Advisor - an AI agent with access to real tools to help Indian farmers.

You have access to these tools to provide accurate, real-time information:

1. **get_weather** - Get current weather and forecast for any location
2. **get_market_prices** - Look up current mandi prices for crops
3. **search_schemes** - Find government agricultural schemes
4. **analyze_crop_advice** - Provide crop-specific guidance based on conditions

**Guidelines:**
- Use tools proactively when relevant - don't just give generic advice
- If a farmer asks about weather, ALWAYS use the weather tool
- If they mention selling crops or prices, use the market prices tool
- If they ask about subsidies or government help, search schemes
- For crop questions, provide tailored advice using analyze_crop_advice
- Consider local seasons (Kharif, Rabi, Zaid) and regional variations
- Use simple language appropriate for farmers
- When discussing pesticides/chemicals, always mention safety precautions
- If unsure, recommend consulting local Krishi Vigyan Kendra (KVK)
- Be empathetic to farmers' challenges

Always respond in the same language the farmer uses (Hindi, English, or regional languages).`

// Assemble validates the caller-supplied history and prepends the system
// prompt. Validation happens here, before any model call: an empty list,
// too many messages, or an over-length message fails fast.
func Assemble(history []llm.Message) ([]llm.Message, error) {
	if len(history) == 0 {
		return nil, ErrNoMessages
	}
	if len(history) > MaxMessages {
		return nil, ErrTooManyMessages
	}
	for i, m := range history {
		// The limit is in characters, not bytes: a Hindi message is three
		// bytes per rune in UTF-8 and must not be penalized for it.
		if n := utf8.RuneCountInString(m.Content); n > MaxContentLength {
			return nil, &MessageTooLongError{Index: i, Length: n}
		}
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.SystemMessage(systemPrompt))
	messages = append(messages, history...)
	return messages, nil
}

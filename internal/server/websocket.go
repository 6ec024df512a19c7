package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // auth middleware has already vetted the request
	},
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string          `json:"type"`
	Name    string          `json:"name,omitempty"`
	Content string          `json:"content,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    int             `json:"code,omitempty"`
}

// handleChatWS is the WebSocket variant of the chat stream. Each incoming
// message carries a full conversation (the same body as POST /api/chat);
// the reply is a sequence of tool_call, delta, and done events.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Debug().Err(err).Msg("websocket read ended")
			return
		}

		if req.ConversationID != "" {
			if _, err := uuid.Parse(req.ConversationID); err != nil {
				wsWriteJSON(conn, wsOutgoing{Type: "error", Error: "Invalid input format", Code: http.StatusBadRequest})
				continue
			}
		}

		s.processChatWS(r.Context(), conn, req.Messages)
	}
}

func (s *Server) processChatWS(ctx context.Context, conn *websocket.Conn, messages []llm.Message) {
	if timeout := s.cfg.Limits.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Serialize writes: tool-call notifications and deltas may interleave.
	var wsMu sync.Mutex

	// Shallow copy so the per-connection callback never races with other
	// requests sharing the orchestrator.
	orch := *s.orchestrator
	orch.OnToolCall = func(name string, args map[string]any) {
		wsMu.Lock()
		wsWriteJSON(conn, wsOutgoing{Type: "tool_call", Name: name})
		wsMu.Unlock()
	}

	turn, err := orch.Prepare(ctx, messages)
	if err != nil {
		code, msg := mapTurnError(err)
		wsMu.Lock()
		wsWriteJSON(conn, wsOutgoing{Type: "error", Error: msg, Code: code})
		wsMu.Unlock()
		return
	}

	err = turn.Stream(ctx, func(delta llm.StreamDelta) {
		wsMu.Lock()
		wsWriteJSON(conn, wsOutgoing{Type: "delta", Content: delta.Content, Raw: json.RawMessage(delta.Raw)})
		wsMu.Unlock()
	})

	wsMu.Lock()
	defer wsMu.Unlock()
	if err != nil {
		code, msg := mapTurnError(err)
		wsWriteJSON(conn, wsOutgoing{Type: "error", Error: msg, Code: code})
		return
	}
	wsWriteJSON(conn, wsOutgoing{Type: "done"})
}

func wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("websocket marshal failed")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug().Err(err).Msg("websocket write failed")
	}
}

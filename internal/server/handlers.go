package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/agent"
	"github.com/kisanmitra/kisan/internal/llm"
)

// Large enough for 50 messages of 50k characters plus JSON overhead.
const maxBodyBytes = 8 << 20

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Chat ---

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
	// Opaque to the orchestrator; validated and passed through for the
	// caller's own persistence.
	ConversationID string `json:"conversationId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input format")
		return
	}

	if req.ConversationID != "" {
		if _, err := uuid.Parse(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input format")
			return
		}
	}

	// Client disconnects cancel r.Context(), which propagates upstream and
	// stops consuming model tokens. The request timeout bounds the turn.
	ctx := r.Context()
	if timeout := s.cfg.Limits.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	turn, err := s.orchestrator.Prepare(ctx, req.Messages)
	if err != nil {
		status, msg := mapTurnError(err)
		writeError(w, status, msg)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	// Advertise invoked tools before any content lands so the UI can show
	// progress indicators.
	toolNames, _ := json.Marshal(turn.ToolNames)
	if turn.ToolNames == nil {
		toolNames = []byte("[]")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Tool-Calls", string(toolNames))

	// The status line is written lazily on the first delta so an upstream
	// failure before any content can still produce a proper error response.
	wrote := false
	streamErr := turn.Stream(ctx, func(delta llm.StreamDelta) {
		if !wrote {
			w.WriteHeader(http.StatusOK)
			wrote = true
		}
		fmt.Fprintf(w, "data: %s\n\n", delta.Raw)
		flusher.Flush()
	})

	if streamErr != nil {
		if !wrote {
			w.Header().Del("Content-Type")
			w.Header().Del("X-Tool-Calls")
			status, msg := mapTurnError(streamErr)
			writeError(w, status, msg)
			return
		}
		// Content already flushed; all we can do is log and end the stream.
		log.Error().Err(streamErr).Msg("stream aborted mid-flight")
		return
	}

	if !wrote {
		w.WriteHeader(http.StatusOK)
	}
	io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// mapTurnError converts orchestrator failures into the client-facing status
// table. Upstream detail is logged here and never leaked to the client.
func mapTurnError(err error) (int, string) {
	if errors.Is(err, agent.ErrNoMessages) || errors.Is(err, agent.ErrTooManyMessages) {
		return http.StatusBadRequest, "Invalid input format"
	}
	var tooLong *agent.MessageTooLongError
	if errors.As(err, &tooLong) {
		return http.StatusBadRequest, "Invalid input format"
	}

	var gw *llm.GatewayError
	if errors.As(err, &gw) {
		log.Error().Int("upstream_status", gw.StatusCode).Str("body", gw.Body).Msg("model gateway error")
		switch gw.StatusCode {
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests, "Too many requests. Please try again in a moment."
		case http.StatusPaymentRequired:
			return http.StatusPaymentRequired, "AI service temporarily unavailable."
		default:
			return http.StatusInternalServerError, "Failed to get AI response"
		}
	}

	log.Error().Err(err).Msg("chat turn failed")
	return http.StatusInternalServerError, "An unexpected error occurred"
}

// --- Tools & health ---

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.toolDefs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

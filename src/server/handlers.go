package server

import (
	"encoding/json"
	"net/http"

	"github.com/launchpad-agents/launchpad/src/aisdk"
	"github.com/launchpad-agents/launchpad/src/executor"
	"github.com/launchpad-agents/launchpad/src/llmclient"
)

// PromptRequest is the inbound payload for POST /prompt.
type PromptRequest struct {
	Messages []PromptMessage `json:"messages" validate:"required,min=1,dive"`
	// Ping marks a liveness probe; answered directly, no model contact.
	Ping bool `json:"ping,omitempty"`
	// Stream selects SSE delivery. Defaults to true.
	Stream *bool `json:"stream,omitempty"`
}

// PromptMessage is one caller-supplied history entry.
type PromptMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// PromptResponse is the non-streamed answer.
type PromptResponse struct {
	Response string `json:"response"`
}

// ErrorBody is the JSON error shape for non-streamed failures.
type ErrorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "invalid JSON body"})
		return
	}
	if req.Ping {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("online"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "messages must be a non-empty list of {role, content}"})
		return
	}

	prompt, err := s.systemPrompt(r.Context())
	if err != nil {
		s.logger.Error("failed to resolve system prompt", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: "failed to load system prompt"})
		return
	}

	history := make([]*aisdk.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, &aisdk.Message{Role: m.Role, Content: m.Content})
	}
	state := executor.NewConversationState(prompt, history)

	if req.Stream == nil || *req.Stream {
		s.streamConversation(w, func(sink executor.EventSink) error {
			return s.orchestrator.Run(r.Context(), state, sink)
		})
		return
	}

	sink := &executor.CollectorSink{}
	if err := s.orchestrator.Run(r.Context(), state, sink); err != nil {
		writeJSON(w, http.StatusBadGateway, ErrorBody{Error: llmclient.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, PromptResponse{Response: sink.Text()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

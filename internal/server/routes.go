package server

import (
	"context"
	"net/http"
	"time"
)

// chatTurnTimeout bounds one full turn, tool hop included.
const chatTurnTimeout = 5 * time.Minute

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/chat/health", s.handleChatHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions", s.handleSessionCount)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionClear)
	mux.HandleFunc("DELETE /api/sessions", s.handleSessionClearAll)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up the WebSocket method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("sessions.count", s.rpcSessionCount)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	})
}

func (s *Server) rpcSessionCount(rc *RequestContext) {
	rc.Respond(map[string]any{"sessions": s.engine.Sessions().SessionCount()})
}

type chatSendParams struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// rpcChatSend runs one chat turn for a WebSocket client. A degraded turn
// still yields a success frame carrying the apology text; only malformed
// params produce an error frame.
func (s *Server) rpcChatSend(rc *RequestContext) {
	var p chatSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Message == "" {
		rc.RespondError("invalid_params", "message is required")
		return
	}
	if p.SessionID == "" {
		p.SessionID = rc.Client.ConnID
	}

	ctx, cancel := context.WithTimeout(context.Background(), chatTurnTimeout)
	defer cancel()

	result, _ := s.engine.Chat(ctx, p.SessionID, p.Message)
	rc.Respond(result)
}

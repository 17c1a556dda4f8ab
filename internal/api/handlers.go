// Package api provides HTTP handlers for the after-hours agent endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wireheat/afterhours/internal/models"
	"github.com/wireheat/afterhours/internal/store"
)

// invokeHandler processes one caller turn on behalf of the hosting voice
// platform. Dialogue-level problems never surface as HTTP errors; the
// engine always produces spoken text the platform can play.
func (s *Server) invokeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.invokeHandler: processing turn", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.invokeHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.invokeHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" {
		slog.Warn("Server.invokeHandler: missing session_id")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("session_id is required"))
		return
	}

	result, err := s.engine.HandleTurn(r.Context(), req)
	if err != nil {
		slog.Error("Server.invokeHandler: turn failed", "sessionID", req.SessionID, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process turn"))
		return
	}

	slog.Info("Server.invokeHandler: turn processed", "sessionID", req.SessionID, "action", req.Action)
	writeJSONResponse(w, http.StatusOK, result)
}

// toolsHandler publishes the OpenAI tool definitions for every registered
// action so the platform's NLU can map caller utterances onto them.
func (s *Server) toolsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"tools": s.engine.ToolDefinitions(),
	})
}

// listRequestsHandler returns every service request, newest first, with the
// counts the dashboard header displays.
func (s *Server) listRequestsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	reqs, err := s.repo.List()
	if err != nil {
		slog.Error("Server.listRequestsHandler: failed to list requests", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to retrieve requests"))
		return
	}

	emergencies := 0
	for _, req := range reqs {
		if req.IsEmergency {
			emergencies++
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"requests":        reqs,
		"emergency_count": emergencies,
		"total_count":     len(reqs),
	})
}

// getRequestHandler returns a single service request by ticket id.
func (s *Server) getRequestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	if !store.ValidTicketID(id) {
		slog.Warn("Server.getRequestHandler: malformed ticket id", "id", id)
		writeJSONResponse(w, http.StatusNotFound, map[string]string{"error": "Request not found"})
		return
	}
	req, err := s.repo.Get(id)
	if err != nil {
		slog.Error("Server.getRequestHandler: lookup failed", "id", id, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to retrieve request"))
		return
	}
	if req == nil {
		writeJSONResponse(w, http.StatusNotFound, map[string]string{"error": "Request not found"})
		return
	}
	writeJSONResponse(w, http.StatusOK, req)
}

// configHandler reports the company identity the dashboard displays.
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"company_name": s.companyName,
		"phone_number": s.phoneNumber,
	})
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  "afterhours",
	})
}

// readyHandler reports readiness, including a repository probe so a broken
// database surfaces before the platform routes calls here.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.List(); err != nil {
		slog.Error("Server.readyHandler: repository probe failed", "error", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "repository unavailable",
		})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

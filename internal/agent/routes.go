package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
)

// RegisterRoutes mounts the conversation endpoints.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Post("/api/process-message", handleProcessMessage(engine))
	r.Delete("/api/sessions/{id}", handleClearSession(engine))
}

type processMessageRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"sessionId"`
	CallerPhone string `json:"callerPhone"`
	CallerName  string `json:"callerName"`
}

func handleProcessMessage(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		reply := engine.ProcessMessage(r.Context(), req.Message, sessionID, CallerInfo{
			Phone: req.CallerPhone,
			Name:  req.CallerName,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			*Reply
			SessionID string `json:"sessionId"`
		}{reply, sessionID})
	}
}

func handleClearSession(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.ClearSession(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, `{"error":"failed to clear session"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	}
}

type resolveRequest struct {
	Answer         string `json:"answer"`
	SupervisorName string `json:"supervisorName"`
}

// ResolveHandler serves POST /api/help-requests/{id}/resolve. It lives here
// rather than with the lifecycle store because resolution also writes the
// learned corpus entry and calls the customer back.
func ResolveHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		resolved, err := engine.HandleSupervisorResponse(r.Context(), chi.URLParam(r, "id"), req.Answer, req.SupervisorName)
		switch {
		case errors.Is(err, helpdesk.ErrValidation):
			http.Error(w, `{"error":"answer is required"}`, http.StatusBadRequest)
			return
		case errors.Is(err, helpdesk.ErrNotFound):
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		case errors.Is(err, helpdesk.ErrNotPending):
			http.Error(w, `{"error":"request is not pending"}`, http.StatusConflict)
			return
		case err != nil:
			http.Error(w, `{"error":"failed to resolve request"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resolved)
	}
}

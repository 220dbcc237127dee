package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/common"
	"github.com/ternarybob/itinera/internal/models"
)

// StateProvider exposes a read-only snapshot of the planning session.
type StateProvider interface {
	StateSnapshot() models.SessionState
}

type APIHandler struct {
	logger arbor.ILogger
	state  StateProvider
}

func NewAPIHandler(state StateProvider) *APIHandler {
	return &APIHandler{
		logger: common.GetLogger(),
		state:  state,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// SessionHandler returns a snapshot of the current planning session for
// debugging and for UI clients that reconnect mid-session.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if h.state == nil {
		WriteError(w, http.StatusServiceUnavailable, "session not ready")
		return
	}

	state := h.state.StateSnapshot()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"step":                        state.Step,
		"session_id":                  state.SessionID,
		"user_info":                   state.UserInfo,
		"attractions":                 len(state.Attractions),
		"selected_attractions":        state.SelectedIDs(),
		"ai_recommendation_generated": state.AIRecommendationGenerated,
		"user_input_processed":        state.UserInputProcessed,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}

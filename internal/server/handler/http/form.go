// Package http provides the HTTP handlers for the form wizard API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkrivosheev/formflow/internal/models"
	"github.com/mkrivosheev/formflow/internal/service"
	"github.com/mkrivosheev/formflow/internal/validation"
)

// FormService defines the submission operations required by the FormHandler.
type FormService interface {
	// GetOrCreate returns the user's submission with its projects,
	// creating an empty one on first call.
	GetOrCreate(ctx context.Context, userID string) (*models.Submission, error)
	// SavePersonal persists the personal-info step. An empty id means
	// "create a new submission owned by userID".
	SavePersonal(ctx context.Context, id, userID string, p models.PersonalInfo) (*models.Submission, error)
	// SaveEducation persists the education step, discarding institution
	// when isStudying is false.
	SaveEducation(ctx context.Context, id, userID string, isStudying bool, institution *string) (*models.Submission, error)
	// SaveProjects replaces the submission's project list wholesale.
	SaveProjects(ctx context.Context, id, userID string, projects []models.Project) (*models.Submission, error)
	// Submit finalizes the submission by touching its timestamp.
	Submit(ctx context.Context, id, userID string) (*models.Submission, error)
}

// FormHandler handles the /api/form endpoints.
type FormHandler struct {
	// FormService performs the underlying submission operations.
	FormService FormService
	// Log receives the causes of 500 responses; those stay opaque to callers.
	Log *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service failure onto the wire: field-level
// validation failures become 400 with the failure list, authorization
// failures become 403, anything else is logged and reported as an
// opaque 500 with failMsg.
func (h *FormHandler) writeServiceError(w http.ResponseWriter, err error, failMsg string) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
		return
	}
	if errors.Is(err, service.ErrUnauthorized) {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}
	h.Log.Error(failMsg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, failMsg)
}

// Fetch handles GET /api/form?userId=ID requests, returning the user's
// submission with its projects and creating an empty one if absent.
func (h *FormHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing user ID")
		return
	}

	sub, err := h.FormService.GetOrCreate(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch form data")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// SavePersonal handles POST /api/form/personal requests. The body is
// an optional personal field set plus userId and an optional id;
// absent fields stay untouched in storage.
func (h *FormHandler) SavePersonal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
		models.PersonalInfo
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing user ID")
		return
	}

	sub, err := h.FormService.SavePersonal(r.Context(), req.ID, req.UserID, req.PersonalInfo)
	if err != nil {
		h.writeServiceError(w, err, "Failed to save personal information")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// SaveEducation handles POST /api/form/education requests.
func (h *FormHandler) SaveEducation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string  `json:"id"`
		UserID      string  `json:"userId"`
		IsStudying  bool    `json:"isStudying"`
		Institution *string `json:"institution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing submission ID or user ID")
		return
	}

	sub, err := h.FormService.SaveEducation(r.Context(), req.ID, req.UserID, req.IsStudying, req.Institution)
	if err != nil {
		h.writeServiceError(w, err, "Failed to save education information")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// SaveProjects handles POST /api/form/projects requests. The body's
// project list replaces the stored list in full.
func (h *FormHandler) SaveProjects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string           `json:"id"`
		UserID   string           `json:"userId"`
		Projects []models.Project `json:"projects"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing submission ID or user ID")
		return
	}

	sub, err := h.FormService.SaveProjects(r.Context(), req.ID, req.UserID, req.Projects)
	if err != nil {
		h.writeServiceError(w, err, "Failed to save projects")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Submit handles POST /api/form/submit requests.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing submission ID or user ID")
		return
	}

	sub, err := h.FormService.Submit(r.Context(), req.ID, req.UserID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to submit form")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

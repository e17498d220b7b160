// Package handlers exposes the behavior subsystem to the admin UI.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stillpoint/portal/internal/behavior"
	"github.com/stillpoint/portal/internal/profiles"
	"github.com/stillpoint/portal/internal/recommend"
	"github.com/stillpoint/portal/pkg/logging"
)

// ProfileService is the slice of profiles.Service the handlers need.
type ProfileService interface {
	GetProfile(ctx context.Context, orgID, clientID string) (behavior.Profile, error)
	ListProfiles(ctx context.Context, orgID string) ([]behavior.Profile, error)
	Recommendations(ctx context.Context, orgID string) ([]recommend.Recommendation, error)
}

// BehaviorHandler serves profile score cards and the staff action list.
type BehaviorHandler struct {
	service ProfileService
	logger  *logging.Logger
}

// NewBehaviorHandler creates the handler.
func NewBehaviorHandler(service ProfileService, logger *logging.Logger) *BehaviorHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BehaviorHandler{service: service, logger: logger}
}

// RegisterRoutes mounts behavior endpoints under a chi router.
// Expected to be mounted under /api/v1/orgs/{orgID}
func (h *BehaviorHandler) RegisterRoutes(r chi.Router) {
	r.Get("/clients/{clientID}/profile", h.getProfile)
	r.Get("/profiles", h.listProfiles)
	r.Get("/recommendations", h.listRecommendations)
}

func (h *BehaviorHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	clientID := chi.URLParam(r, "clientID")
	if orgID == "" || clientID == "" {
		http.Error(w, "missing org or client id", http.StatusBadRequest)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), orgID, clientID)
	if err != nil {
		if errors.Is(err, profiles.ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("behavior handler: get profile", "org_id", orgID, "client_id", clientID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, profile)
}

func (h *BehaviorHandler) listProfiles(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if orgID == "" {
		http.Error(w, "missing org id", http.StatusBadRequest)
		return
	}

	result, err := h.service.ListProfiles(r.Context(), orgID)
	if err != nil {
		h.logger.Error("behavior handler: list profiles", "org_id", orgID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"profiles": result,
		"count":    len(result),
	})
}

func (h *BehaviorHandler) listRecommendations(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if orgID == "" {
		http.Error(w, "missing org id", http.StatusBadRequest)
		return
	}

	recs, err := h.service.Recommendations(r.Context(), orgID)
	if err != nil {
		h.logger.Error("behavior handler: recommendations", "org_id", orgID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"recommendations": recs,
		"count":           len(recs),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

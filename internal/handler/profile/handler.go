package profile

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	profilemodel "github.com/talbothq/talbot/backend/internal/model/profile"
	profilesvc "github.com/talbothq/talbot/backend/internal/service/profile"
	"github.com/talbothq/talbot/backend/pkg/utils"
)

// Handler serves the user profile endpoints.
type Handler struct {
	profiles *profilesvc.Service
}

// New creates the profile handler.
func New(profiles *profilesvc.Service) *Handler {
	return &Handler{profiles: profiles}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(pr chi.Router) {
		pr.Get("/", h.handleGet)
		pr.Put("/", h.handleSave)
		pr.Delete("/", h.handleClear)
		pr.Get("/name-usage", h.handleNameUsage)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p := h.profiles.Get()
	if p == nil {
		utils.RespondError(w, http.StatusNotFound, "no profile set")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var p profilemodel.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.profiles.Save(p)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	h.profiles.Clear()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleNameUsage(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profiles.NameUsage())
}

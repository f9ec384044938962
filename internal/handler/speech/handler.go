package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	speechmodel "github.com/talbothq/talbot/backend/internal/model/speech"
	speechsvc "github.com/talbothq/talbot/backend/internal/service/speech"
	"github.com/talbothq/talbot/backend/pkg/utils"
)

// Synthesizer abstracts the provider client so handlers can be tested
// without the real API.
type Synthesizer interface {
	Enabled() bool
	Synthesize(ctx context.Context, req speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
	CheckHealth(ctx context.Context) error
}

// Handler serves the speech endpoints: direct synthesis, provider
// health, and the voice mode toggle.
type Handler struct {
	client Synthesizer
	svc    *speechsvc.Service
}

// New creates the speech handler.
func New(client Synthesizer, svc *speechsvc.Service) *Handler {
	return &Handler{client: client, svc: svc}
}

// RegisterRoutes registers the speech routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(sr chi.Router) {
		sr.Post("/synthesize", h.handleSynthesize)
		sr.Get("/health", h.handleHealth)
		sr.Get("/voice-mode", h.handleGetVoiceMode)
		sr.Put("/voice-mode", h.handleSetVoiceMode)
	})
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if !h.client.Enabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech synthesis is not configured")
		return
	}

	var req speechmodel.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	resp, err := h.client.Synthesize(r.Context(), req)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", resp.Format)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.AudioData)))
	w.WriteHeader(http.StatusOK)
	w.Write(resp.AudioData)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.client.Enabled() {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"configured": false})
		return
	}
	if err := h.client.CheckHealth(r.Context()); err != nil {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"configured": true, "healthy": false})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"configured": true, "healthy": true})
}

func (h *Handler) handleGetVoiceMode(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]int{"mode": int(h.svc.Mode())})
}

func (h *Handler) handleSetVoiceMode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mode int `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetMode(speechsvc.VoiceMode(payload.Mode)); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "mode must be 0 (mute), 1 (female) or 2 (male)")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int{"mode": payload.Mode})
}

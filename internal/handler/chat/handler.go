package chat

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/talbothq/talbot/backend/internal/model/chat"
	memorymodel "github.com/talbothq/talbot/backend/internal/model/memory"
	profilemodel "github.com/talbothq/talbot/backend/internal/model/profile"
	"github.com/talbothq/talbot/backend/internal/service/gate"
	"github.com/talbothq/talbot/backend/internal/service/history"
	"github.com/talbothq/talbot/backend/internal/service/memory"
	"github.com/talbothq/talbot/backend/pkg/utils"
)

// welcomeMessage is the empty-transcript display state restored after a
// reset.
const welcomeMessage = "Hi, I'm Talbot. I'm here to provide a safe space to talk through things between your therapy sessions. I find it helpful to ask questions to get to the root of why you might be feeling a certain way - just like your therapist does."

// ProfileReader is the slice of the profile store the export endpoint
// needs.
type ProfileReader interface {
	Get() *profilemodel.Profile
}

// Handler serves the conversation endpoints: sending, the draft buffer,
// transcript access, resets and export.
type Handler struct {
	gate    *gate.Gate
	history *history.Service
	memory  *memory.Service
	profile ProfileReader
}

// New creates the conversation handler.
func New(g *gate.Gate, hist *history.Service, mem *memory.Service, profile ProfileReader) *Handler {
	return &Handler{gate: g, history: hist, memory: mem, profile: profile}
}

// RegisterRoutes registers the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(cr chi.Router) {
		cr.Post("/send", h.handleSend)
		cr.Get("/draft", h.handleGetDraft)
		cr.Put("/draft", h.handlePutDraft)
		cr.Get("/messages", h.handleListMessages)
		cr.Put("/messages/{messageID}", h.handleEditMessage)
		cr.Delete("/messages/{messageID}", h.handleDeleteMessage)
		cr.Get("/stats", h.handleStats)
		cr.Post("/reset", h.handleReset)
	})
	r.Get("/memory", h.handleGetMemory)
	r.Get("/export", h.handleExport)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source := gate.Source(payload.Source)
	if payload.Source == "" {
		source = gate.SourceClick
	}
	if !source.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "unknown send source")
		return
	}

	accepted := h.gate.RequestSend(source, payload.Text)
	utils.RespondJSON(w, http.StatusAccepted, map[string]bool{"accepted": accepted})
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"text": h.gate.Draft()})
}

func (h *Handler) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.gate.SetDraft(payload.Text)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.history.All()
	response := map[string]any{
		"messages": messages,
		"inFlight": h.gate.InFlight(),
	}
	if len(messages) == 0 {
		response["welcome"] = welcomeMessage
	}
	utils.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.history.Edit(messageID, payload.Content) {
		utils.RespondError(w, http.StatusNotFound, "message not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if !h.history.Delete(chi.URLParam(r, "messageID")) {
		utils.RespondError(w, http.StatusNotFound, "message not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.history.Stats())
}

// handleReset starts a new conversation. Mode "keep-context" distils the
// current transcript into conversation memory first; mode "complete"
// wipes the memory as well. Both clear the transcript.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch payload.Mode {
	case "keep-context":
		h.memory.Save(memory.Derive(h.history.All()))
		h.history.Clear()
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "reset",
			"welcome": welcomeMessage,
			"context": h.memory.Preview(),
		})
	case "complete":
		h.history.Clear()
		h.memory.Clear()
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "reset",
			"welcome": welcomeMessage,
		})
	default:
		utils.RespondError(w, http.StatusBadRequest, "mode must be keep-context or complete")
	}
}

func (h *Handler) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	m := h.memory.Get()
	if m == nil {
		utils.RespondError(w, http.StatusNotFound, "no conversation memory")
		return
	}
	utils.RespondJSON(w, http.StatusOK, m)
}

type exportBundle struct {
	ExportDate         time.Time                      `json:"exportDate"`
	Profile            *profilemodel.Profile          `json:"profile"`
	Messages           []chatmodel.Message            `json:"messages"`
	ConversationMemory *memorymodel.ConversationMemory `json:"conversationMemory"`
	Stats              chatmodel.Stats                `json:"stats"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, exportBundle{
		ExportDate:         time.Now().UTC(),
		Profile:            h.profile.Get(),
		Messages:           h.history.All(),
		ConversationMemory: h.memory.Get(),
		Stats:              h.history.Stats(),
	})
}

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	chathandler "github.com/talbothq/talbot/backend/internal/handler/chat"
	profilehandler "github.com/talbothq/talbot/backend/internal/handler/profile"
	speechhandler "github.com/talbothq/talbot/backend/internal/handler/speech"
	"github.com/talbothq/talbot/backend/internal/service/gate"
	"github.com/talbothq/talbot/backend/internal/service/history"
	"github.com/talbothq/talbot/backend/internal/service/memory"
	profilesvc "github.com/talbothq/talbot/backend/internal/service/profile"
	speechsvc "github.com/talbothq/talbot/backend/internal/service/speech"
	"github.com/talbothq/talbot/backend/pkg/utils"
)

// Deps bundles the services the router wires to handlers.
type Deps struct {
	Gate         *gate.Gate
	History      *history.Service
	Memory       *memory.Service
	Profiles     *profilesvc.Service
	SpeechClient speechhandler.Synthesizer
	Speech       *speechsvc.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	chatHandler := chathandler.New(deps.Gate, deps.History, deps.Memory, deps.Profiles)
	profileHandler := profilehandler.New(deps.Profiles)
	speechHandler := speechhandler.New(deps.SpeechClient, deps.Speech)
	voiceHandler := speechhandler.NewWebSocketHandler(deps.Gate, deps.Speech)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		profileHandler.RegisterRoutes(api)
		speechHandler.RegisterRoutes(api)
		voiceHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status": "ok",
				"time":   time.Now().UTC(),
			})
		})
	})

	return r
}

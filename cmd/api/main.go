package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talbothq/talbot/backend/internal/config"
	"github.com/talbothq/talbot/backend/internal/handler"
	"github.com/talbothq/talbot/backend/internal/service/ai"
	"github.com/talbothq/talbot/backend/internal/service/gate"
	"github.com/talbothq/talbot/backend/internal/service/history"
	"github.com/talbothq/talbot/backend/internal/service/memory"
	profilesvc "github.com/talbothq/talbot/backend/internal/service/profile"
	"github.com/talbothq/talbot/backend/internal/service/prompt"
	speechsvc "github.com/talbothq/talbot/backend/internal/service/speech"
	"github.com/talbothq/talbot/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	st := openStore(cfg.Storage)
	defer st.Close()

	// Core services, in dependency order.
	historyService := history.NewService(st)
	profileService := profilesvc.NewService(st)
	memoryService := memory.NewService(st)
	builder := prompt.NewBuilder(profileService, memoryService)

	aiService, err := ai.NewService(ctx, cfg.AI, profileService)
	if err != nil {
		log.Fatalf("failed to initialize response pipeline: %v", err)
	}

	speechClient := speechsvc.NewClient(cfg.Speech)
	speechService := speechsvc.NewService(speechClient, cfg.Speech)
	if cfg.Speech.Enabled {
		log.Println("speech synthesis enabled")
	} else {
		log.Println("no speech credentials configured, voice replies disabled")
	}

	gateService := gate.New(historyService, profileService, builder, aiService, speechService, cfg.Gate)

	router := handler.NewRouter(handler.Deps{
		Gate:         gateService,
		History:      historyService,
		Memory:       memoryService,
		Profiles:     profileService,
		SpeechClient: speechClient,
		Speech:       speechService,
	})

	startServer(ctx, cfg.Server, router)
}

// openStore opens durable storage, falling back to an in-memory session
// when SQLite is unavailable. The conversation still works, it just
// won't survive a restart.
func openStore(cfg config.StorageConfig) store.Store {
	if cfg.SQLitePath == "" {
		log.Println("no database path configured, using in-memory storage")
		return store.NewMemoryStore()
	}

	st, err := store.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		log.Printf("warning: failed to open %s: %v", cfg.SQLitePath, err)
		log.Println("falling back to in-memory storage")
		return store.NewMemoryStore()
	}

	log.Printf("using sqlite storage at %s", cfg.SQLitePath)
	return st
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Talbot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

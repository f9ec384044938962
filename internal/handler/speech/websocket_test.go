package speech_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/talbothq/talbot/backend/internal/config"
	speechhandler "github.com/talbothq/talbot/backend/internal/handler/speech"
	"github.com/talbothq/talbot/backend/internal/service/ai"
	"github.com/talbothq/talbot/backend/internal/service/gate"
	"github.com/talbothq/talbot/backend/internal/service/history"
	"github.com/talbothq/talbot/backend/internal/service/memory"
	profilesvc "github.com/talbothq/talbot/backend/internal/service/profile"
	"github.com/talbothq/talbot/backend/internal/service/prompt"
	speechsvc "github.com/talbothq/talbot/backend/internal/service/speech"
	"github.com/talbothq/talbot/backend/internal/store"
)

type wsResponder struct{}

func (wsResponder) Respond(context.Context, prompt.Payload) ai.Reply {
	return ai.Reply{Content: "I hear you."}
}

func dialVoiceChannel(t *testing.T) (*websocket.Conn, *history.Service, func()) {
	t.Helper()

	st := store.NewMemoryStore()
	hist := history.NewService(st)
	profiles := profilesvc.NewService(st)
	mem := memory.NewService(st)
	builder := prompt.NewBuilder(profiles, mem)
	speech := speechsvc.NewService(&fakeClient{enabled: true}, config.SpeechConfig{MaxTextLength: 300, Enabled: true})
	g := gate.New(hist, profiles, builder, wsResponder{}, speech, config.GateConfig{MinSendInterval: time.Nanosecond})

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		speechhandler.NewWebSocketHandler(g, speech).RegisterRoutes(api)
	})

	srv := httptest.NewServer(r)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/voice/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}

	cleanup := func() {
		conn.Close()
		srv.Close()
	}
	return conn, hist, cleanup
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return frame
}

func TestFinalTranscriptTriggersSend(t *testing.T) {
	conn, hist, cleanup := dialVoiceChannel(t)
	defer cleanup()

	err := conn.WriteJSON(map[string]any{
		"type": "transcript",
		"data": map[string]any{"text": "I had a rough day", "isFinal": true},
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "send" {
		t.Fatalf("expected send ack, got %v", frame)
	}
	data, _ := frame["data"].(map[string]any)
	if data["accepted"] != true {
		t.Fatalf("expected accepted send, got %v", frame)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hist.Len() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if hist.Len() != 2 {
		t.Fatalf("expected user+assistant messages, got %d", hist.Len())
	}
}

func TestInterimTranscriptIgnored(t *testing.T) {
	conn, hist, cleanup := dialVoiceChannel(t)
	defer cleanup()

	err := conn.WriteJSON(map[string]any{
		"type": "transcript",
		"data": map[string]any{"text": "I had a", "isFinal": false},
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Ping/pong confirms the interim frame was processed without a send.
	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if frame := readFrame(t, conn); frame["type"] != "pong" {
		t.Fatalf("expected pong, got %v", frame)
	}
	if hist.Len() != 0 {
		t.Fatal("interim transcript must not trigger a send")
	}
}

func TestUnknownFrameType(t *testing.T) {
	conn, _, cleanup := dialVoiceChannel(t)
	defer cleanup()

	if err := conn.WriteJSON(map[string]any{"type": "mystery"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if frame := readFrame(t, conn); frame["type"] != "error" {
		t.Fatalf("expected error frame, got %v", frame)
	}
}

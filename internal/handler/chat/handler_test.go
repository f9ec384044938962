package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talbothq/talbot/backend/internal/config"
	chathandler "github.com/talbothq/talbot/backend/internal/handler/chat"
	chatmodel "github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/service/ai"
	"github.com/talbothq/talbot/backend/internal/service/gate"
	"github.com/talbothq/talbot/backend/internal/service/history"
	"github.com/talbothq/talbot/backend/internal/service/memory"
	profilesvc "github.com/talbothq/talbot/backend/internal/service/profile"
	"github.com/talbothq/talbot/backend/internal/service/prompt"
	"github.com/talbothq/talbot/backend/internal/store"
)

func configForTest() config.GateConfig {
	return config.GateConfig{MinSendInterval: time.Nanosecond}
}

type instantResponder struct{}

func (instantResponder) Respond(context.Context, prompt.Payload) ai.Reply {
	return ai.Reply{Content: "I hear you."}
}

type noopSpeaker struct{}

func (noopSpeaker) Speak(context.Context, string) {}

type fixture struct {
	router  http.Handler
	history *history.Service
	memory  *memory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	hist := history.NewService(st)
	profiles := profilesvc.NewService(st)
	mem := memory.NewService(st)
	builder := prompt.NewBuilder(profiles, mem)
	g := gate.New(hist, profiles, builder, instantResponder{}, noopSpeaker{}, configForTest())

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		chathandler.New(g, hist, mem, profiles).RegisterRoutes(api)
	})

	return &fixture{router: r, history: hist, memory: mem}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSendEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/chat/send", `{"text":"I had a rough day","source":"click"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp["accepted"] {
		t.Fatal("expected send accepted")
	}

	waitFor(t, func() bool { return f.history.Len() == 2 }, "assistant reply")
}

func TestSendRejectsEmptyText(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/chat/send", `{"text":"   "}`)
	var resp map[string]bool
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["accepted"] {
		t.Fatal("whitespace-only send must be rejected")
	}
	if f.history.Len() != 0 {
		t.Fatal("rejected send must not touch the transcript")
	}
}

func TestSendRejectsUnknownSource(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodPost, "/api/chat/send", `{"text":"hi","source":"gesture"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodPut, "/api/chat/draft", `{"text":"half-typed"}`); rec.Code != http.StatusOK {
		t.Fatalf("put draft failed: %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/chat/draft", "")
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["text"] != "half-typed" {
		t.Fatalf("unexpected draft: %q", resp["text"])
	}
}

func TestListMessagesShowsWelcomeWhenEmpty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/chat/messages", "")
	var resp struct {
		Messages []chatmodel.Message `json:"messages"`
		Welcome  string              `json:"welcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Messages) != 0 {
		t.Fatalf("expected empty transcript, got %d", len(resp.Messages))
	}
	if !strings.Contains(resp.Welcome, "Talbot") {
		t.Fatalf("expected welcome text, got %q", resp.Welcome)
	}
}

func TestEditAndDeleteMessage(t *testing.T) {
	f := newFixture(t)
	msg, _ := f.history.Append(chatmodel.SenderUser, "original")

	rec := f.do(t, http.MethodPut, "/api/chat/messages/"+msg.ID, `{"content":"edited"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit failed: %d", rec.Code)
	}
	if got := f.history.All()[0]; got.Content != "edited" || !got.Edited {
		t.Fatalf("edit not applied: %+v", got)
	}

	if rec := f.do(t, http.MethodDelete, "/api/chat/messages/"+msg.ID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", rec.Code)
	}
	if f.history.Len() != 0 {
		t.Fatal("message not deleted")
	}

	if rec := f.do(t, http.MethodDelete, "/api/chat/messages/no-such-id", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing message, got %d", rec.Code)
	}
}

func TestResetKeepContext(t *testing.T) {
	f := newFixture(t)
	f.history.Append(chatmodel.SenderUser, "my anxiety about work is intense")
	f.history.Append(chatmodel.SenderAssistant, "tell me more")

	rec := f.do(t, http.MethodPost, "/api/chat/reset", `{"mode":"keep-context"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d", rec.Code)
	}

	if f.history.Len() != 0 {
		t.Fatal("transcript not cleared")
	}
	m := f.memory.Get()
	if m == nil {
		t.Fatal("expected conversation memory saved")
	}
	if m.MessageCountAtSave != 2 {
		t.Fatalf("unexpected message count: %d", m.MessageCountAtSave)
	}
}

func TestResetComplete(t *testing.T) {
	f := newFixture(t)
	f.history.Append(chatmodel.SenderUser, "hello")
	f.memory.Save(memory.Derive(f.history.All()))

	rec := f.do(t, http.MethodPost, "/api/chat/reset", `{"mode":"complete"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d", rec.Code)
	}

	if f.history.Len() != 0 {
		t.Fatal("transcript not cleared")
	}
	if f.memory.Get() != nil {
		t.Fatal("conversation memory must be destroyed on complete reset")
	}
}

func TestResetRejectsUnknownMode(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodPost, "/api/chat/reset", `{"mode":"soft"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMemoryEndpoint(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodGet, "/api/memory", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without memory, got %d", rec.Code)
	}

	f.history.Append(chatmodel.SenderUser, "thinking about therapy")
	f.memory.Save(memory.Derive(f.history.All()))

	rec := f.do(t, http.MethodGet, "/api/memory", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "therapy") {
		t.Fatalf("memory body missing topic: %s", rec.Body.String())
	}
}

func TestExportBundle(t *testing.T) {
	f := newFixture(t)
	f.history.Append(chatmodel.SenderUser, "hello")
	f.history.Append(chatmodel.SenderAssistant, "hi")

	rec := f.do(t, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export failed: %d", rec.Code)
	}

	var bundle struct {
		Messages []chatmodel.Message `json:"messages"`
		Stats    chatmodel.Stats     `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if len(bundle.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(bundle.Messages))
	}
	if bundle.Stats.Total != 2 || bundle.Stats.UserCount != 1 {
		t.Fatalf("unexpected stats: %+v", bundle.Stats)
	}
}

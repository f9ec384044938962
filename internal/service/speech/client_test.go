package speech_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/talbothq/talbot/backend/internal/config"
	speechmodel "github.com/talbothq/talbot/backend/internal/model/speech"
	"github.com/talbothq/talbot/backend/internal/service/speech"
)

func testConfig(baseURL string) config.SpeechConfig {
	return config.SpeechConfig{
		APIKey:        "test-key",
		BaseURL:       baseURL,
		FemaleVoiceID: "voice-f",
		MaleVoiceID:   "voice-m",
		MaxTextLength: 300,
		Timeout:       5 * time.Second,
		Enabled:       true,
	}
}

func TestSynthesizeSendsProviderRequest(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	client := speech.NewClient(testConfig(srv.URL))
	resp, err := client.Synthesize(context.Background(), speechmodel.TTSRequest{
		Text:    "hello there",
		VoiceID: "voice-m",
	})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	if gotPath != "/v1/text-to-speech/voice-m" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header: %s", gotKey)
	}
	if gotBody["text"] != "hello there" {
		t.Fatalf("unexpected text: %v", gotBody["text"])
	}
	settings, _ := gotBody["voice_settings"].(map[string]any)
	if settings["stability"] != 0.75 || settings["similarity_boost"] != 0.85 {
		t.Fatalf("default voice settings not applied: %v", settings)
	}
	if string(resp.AudioData) != "mp3-bytes" {
		t.Fatalf("unexpected audio payload: %q", resp.AudioData)
	}
	if resp.Format != "audio/mpeg" {
		t.Fatalf("unexpected format: %s", resp.Format)
	}
}

func TestSynthesizeDefaultsToFemaleVoice(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := speech.NewClient(testConfig(srv.URL))
	if _, err := client.Synthesize(context.Background(), speechmodel.TTSRequest{Text: "hi"}); err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if gotPath != "/v1/text-to-speech/voice-f" {
		t.Fatalf("expected female default voice, got %s", gotPath)
	}
}

func TestSynthesizeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := speech.NewClient(testConfig(srv.URL))
	if _, err := client.Synthesize(context.Background(), speechmodel.TTSRequest{Text: "hi"}); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestSynthesizeDisabled(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Enabled = false
	client := speech.NewClient(cfg)
	if _, err := client.Synthesize(context.Background(), speechmodel.TTSRequest{Text: "hi"}); err == nil {
		t.Fatal("expected error when disabled")
	}
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := speech.NewClient(testConfig(srv.URL))
	if err := client.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}

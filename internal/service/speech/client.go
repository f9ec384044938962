package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talbothq/talbot/backend/internal/config"
	speechmodel "github.com/talbothq/talbot/backend/internal/model/speech"
)

// ttsModelID selects the provider model. The monolingual model is the
// fastest with acceptable quality for short replies.
const ttsModelID = "eleven_monolingual_v1"

// Client talks to the hosted text-to-speech API.
type Client struct {
	cfg        config.SpeechConfig
	httpClient *http.Client
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.SpeechConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

type synthesizeBody struct {
	Text          string                    `json:"text"`
	ModelID       string                    `json:"model_id"`
	VoiceSettings speechmodel.VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text into audio. The response carries raw MPEG
// bytes ready to stream to a client.
func (c *Client) Synthesize(ctx context.Context, req speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if !c.cfg.Enabled {
		return nil, fmt.Errorf("speech synthesis is not configured")
	}
	if req.Text == "" {
		return nil, fmt.Errorf("text is required")
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = c.cfg.FemaleVoiceID
	}

	settings := req.Settings
	if settings == (speechmodel.VoiceSettings{}) {
		settings = speechmodel.DefaultVoiceSettings()
	}

	payload, err := json.Marshal(synthesizeBody{
		Text:          req.Text,
		ModelID:       ttsModelID,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.BaseURL, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech provider returned status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	return &speechmodel.TTSResponse{
		AudioData: audio,
		Format:    "audio/mpeg",
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CheckHealth verifies the API key against the provider's voices
// endpoint.
func (c *Client) CheckHealth(ctx context.Context) error {
	if !c.cfg.Enabled {
		return fmt.Errorf("speech synthesis is not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("speech provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech provider returned status %d", resp.StatusCode)
	}
	return nil
}

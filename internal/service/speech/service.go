package speech

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/talbothq/talbot/backend/internal/config"
	speechmodel "github.com/talbothq/talbot/backend/internal/model/speech"
)

// VoiceMode selects which voice speaks replies, or none at all.
type VoiceMode int

const (
	VoiceMuted VoiceMode = iota
	VoiceFemale
	VoiceMale
)

// Valid reports whether the mode is one of the three known values.
func (m VoiceMode) Valid() bool {
	return m == VoiceMuted || m == VoiceFemale || m == VoiceMale
}

// Synthesizer is the outbound half of the speech concern. *Client
// satisfies it; tests use fakes.
type Synthesizer interface {
	Enabled() bool
	Synthesize(ctx context.Context, req speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// Service speaks assistant replies aloud: it synthesizes audio and
// fans it out to subscribed listeners, typically voice-channel
// websocket connections. Synthesis failures are logged and swallowed;
// speech is best-effort and never blocks the conversation.
type Service struct {
	client Synthesizer
	cfg    config.SpeechConfig

	mu          sync.Mutex
	mode        VoiceMode
	subscribers map[chan *speechmodel.TTSResponse]struct{}
}

// NewService wires the speech service. The initial mode is muted, the
// same default the product ships with.
func NewService(client Synthesizer, cfg config.SpeechConfig) *Service {
	return &Service{
		client:      client,
		cfg:         cfg,
		mode:        VoiceMuted,
		subscribers: make(map[chan *speechmodel.TTSResponse]struct{}),
	}
}

// Mode returns the current voice mode.
func (s *Service) Mode() VoiceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the voice mode.
func (s *Service) SetMode(mode VoiceMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid voice mode %d", mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Subscribe registers a listener for synthesized audio. The returned
// cancel function must be called when the listener goes away.
func (s *Service) Subscribe() (<-chan *speechmodel.TTSResponse, func()) {
	ch := make(chan *speechmodel.TTSResponse, 4)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			// Broadcast only sends while holding the lock, so the
			// close cannot race a send.
			close(ch)
		}
	}
	return ch, cancel
}

// Speak synthesizes the text and delivers the audio to all subscribers.
// Muted mode, a missing API key, over-length text and provider errors
// all degrade to silence.
func (s *Service) Speak(ctx context.Context, text string) {
	s.mu.Lock()
	mode := s.mode
	listeners := len(s.subscribers)
	s.mu.Unlock()

	if mode == VoiceMuted || listeners == 0 {
		return
	}
	if s.client == nil || !s.client.Enabled() {
		return
	}
	if len(text) > s.cfg.MaxTextLength {
		log.Printf("[speech] reply too long for synthesis: %d > %d chars", len(text), s.cfg.MaxTextLength)
		return
	}

	resp, err := s.client.Synthesize(ctx, speechmodel.TTSRequest{
		Text:     text,
		VoiceID:  s.voiceID(mode),
		Settings: speechmodel.DefaultVoiceSettings(),
	})
	if err != nil {
		log.Printf("[speech] synthesis failed: %v", err)
		return
	}

	s.broadcast(resp)
}

func (s *Service) voiceID(mode VoiceMode) string {
	if mode == VoiceMale {
		return s.cfg.MaleVoiceID
	}
	return s.cfg.FemaleVoiceID
}

func (s *Service) broadcast(resp *speechmodel.TTSResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- resp:
		default:
			// Slow listener, drop rather than stall the pipeline.
		}
	}
}

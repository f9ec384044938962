package speech

import "time"

// VoiceSettings tunes the synthesis voice. Zero values mean "use the
// provider defaults".
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings matches the tuning the product shipped with.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.75,
		SimilarityBoost: 0.85,
		Style:           0.6,
		UseSpeakerBoost: true,
	}
}

// TTSRequest asks the speech provider to synthesize text.
type TTSRequest struct {
	Text     string        `json:"text"`
	VoiceID  string        `json:"voiceId"`
	Settings VoiceSettings `json:"voiceSettings"`
}

// TTSResponse carries synthesized audio back to the caller.
type TTSResponse struct {
	AudioData []byte    `json:"-"`
	Format    string    `json:"format"`
	Duration  int64     `json:"duration"` // milliseconds, 0 if unknown
	CreatedAt time.Time `json:"createdAt"`
}

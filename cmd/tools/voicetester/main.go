package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/talbothq/talbot/backend/internal/config"
	speechmodel "github.com/talbothq/talbot/backend/internal/model/speech"
	"github.com/talbothq/talbot/backend/internal/service/speech"
)

// voicetester exercises the text-to-speech client against the configured
// provider and writes the audio to disk. Handy when tuning voices
// without running the full server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.Speech.Enabled {
		log.Fatal("speech synthesis is not configured, set ELEVENLABS_API_KEY first")
	}

	text := flag.String("text", "", "text to synthesize")
	voice := flag.String("voice", "", "voice: female (default), male, or a raw voice id")
	outputPath := flag.String("out", "", "output file path (default talbot-tts-<ts>.mp3)")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")
	health := flag.Bool("health", false, "only check provider health and exit")
	flag.Parse()

	client := speech.NewClient(cfg.Speech)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *health {
		if err := client.CheckHealth(ctx); err != nil {
			log.Fatalf("provider health check failed: %v", err)
		}
		log.Println("provider is healthy")
		return
	}

	if *text == "" {
		flag.Usage()
		log.Fatal("provide -text to synthesize")
	}

	voiceID := cfg.Speech.FemaleVoiceID
	switch *voice {
	case "", "female":
	case "male":
		voiceID = cfg.Speech.MaleVoiceID
	default:
		voiceID = *voice
	}

	resp, err := client.Synthesize(ctx, speechmodel.TTSRequest{
		Text:    *text,
		VoiceID: voiceID,
	})
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}

	out := *outputPath
	if out == "" {
		out = fmt.Sprintf("talbot-tts-%d.mp3", time.Now().Unix())
	}
	if err := os.WriteFile(out, resp.AudioData, 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", out, err)
	}

	log.Printf("wrote %d bytes of %s to %s", len(resp.AudioData), resp.Format, out)
}

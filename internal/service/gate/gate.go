package gate

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/talbothq/talbot/backend/internal/config"
	"github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/service/ai"
	"github.com/talbothq/talbot/backend/internal/service/prompt"
)

// Default gate timings. The minimum interval absorbs double-clicks and
// key repeat; the failsafe bounds how long the gate can stay locked if
// the pipeline never settles.
const (
	DefaultMinSendInterval = 500 * time.Millisecond
	DefaultFailsafeUnlock  = 10 * time.Second
)

// Source identifies what triggered a send attempt.
type Source string

const (
	SourceClick    Source = "click"
	SourceEnterKey Source = "enterKey"
	SourceVoice    Source = "voice"
)

// Valid reports whether the source is one of the known triggers.
func (s Source) Valid() bool {
	return s == SourceClick || s == SourceEnterKey || s == SourceVoice
}

// Transcript is the message-log surface the gate needs.
type Transcript interface {
	Append(sender chat.Sender, content string) (chat.Message, bool)
	All() []chat.Message
}

// TurnCounter is the profile-side hook incremented once per accepted
// user turn.
type TurnCounter interface {
	RecordUserTurn()
}

// Responder runs the response pipeline for one accepted send.
type Responder interface {
	Respond(ctx context.Context, p prompt.Payload) ai.Reply
}

// Speaker voices the assistant reply. Best-effort.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

// Gate is the single authority on whether a send proceeds. It owns the
// draft input buffer, enforces at-most-one-in-flight, and dispatches
// accepted sends to the response pipeline.
type Gate struct {
	transcript Transcript
	turns      TurnCounter
	builder    *prompt.Builder
	responder  Responder
	speaker    Speaker

	minInterval time.Duration
	failsafe    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	draft    string
	inFlight bool
	lastSend time.Time
	seq      uint64
}

// New wires a Gate. Zero config values fall back to the defaults.
func New(transcript Transcript, turns TurnCounter, builder *prompt.Builder, responder Responder, speaker Speaker, cfg config.GateConfig) *Gate {
	minInterval := cfg.MinSendInterval
	if minInterval <= 0 {
		minInterval = DefaultMinSendInterval
	}
	failsafe := cfg.FailsafeUnlock
	if failsafe <= 0 {
		failsafe = DefaultFailsafeUnlock
	}

	return &Gate{
		transcript:  transcript,
		turns:       turns,
		builder:     builder,
		responder:   responder,
		speaker:     speaker,
		minInterval: minInterval,
		failsafe:    failsafe,
		now:         time.Now,
	}
}

// SetDraft replaces the draft input buffer.
func (g *Gate) SetDraft(text string) {
	g.mu.Lock()
	g.draft = text
	g.mu.Unlock()
}

// Draft returns the current draft input buffer.
func (g *Gate) Draft() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.draft
}

// InFlight reports whether a send is currently being processed.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// RequestSend decides whether a send proceeds. Click and enter-key
// sources read the draft buffer unless textOverride is supplied; the
// voice source always supplies its finalized transcript via
// textOverride. Rejections are silent no-ops: empty text, a send
// already in flight, or a send attempted too soon after the last one.
//
// On acceptance the user message is appended to the transcript before
// this method returns, so a reload mid-flight still shows it. The
// pipeline itself runs asynchronously.
func (g *Gate) RequestSend(source Source, textOverride string) bool {
	if !source.Valid() {
		return false
	}

	g.mu.Lock()

	text := textOverride
	if text == "" && source != SourceVoice {
		text = g.draft
	}
	text = strings.TrimSpace(text)
	if text == "" {
		g.mu.Unlock()
		return false
	}

	if g.inFlight {
		g.mu.Unlock()
		log.Printf("[gate] send rejected: already in flight")
		return false
	}

	now := g.now()
	if !g.lastSend.IsZero() && now.Sub(g.lastSend) < g.minInterval {
		g.mu.Unlock()
		log.Printf("[gate] send rejected: too soon after previous send")
		return false
	}

	g.inFlight = true
	g.lastSend = now
	g.seq++
	seq := g.seq
	if source != SourceVoice {
		g.draft = ""
	}
	g.mu.Unlock()

	// Turn accounting happens before the payload is built so the name
	// guidance the model sees reflects this message.
	g.turns.RecordUserTurn()

	if _, ok := g.transcript.Append(chat.SenderUser, text); !ok {
		g.release(seq)
		return false
	}

	payload := g.builder.Build(text, g.transcript.All())

	timer := time.AfterFunc(g.failsafe, func() {
		if g.release(seq) {
			log.Printf("[gate] failsafe unlock after %s", g.failsafe)
		}
	})

	go func() {
		reply := g.responder.Respond(context.Background(), payload)
		_, appended := g.transcript.Append(chat.SenderAssistant, reply.Content)

		// The pipeline has settled: unlock before playback so a slow
		// synthesis call cannot hold new sends hostage.
		timer.Stop()
		g.release(seq)

		if appended && g.speaker != nil {
			g.speaker.Speak(context.Background(), reply.Content)
		}
	}()

	return true
}

// release clears the in-flight flag for the given send. A stale release
// (failsafe already fired and a newer send started) is a no-op.
func (g *Gate) release(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seq != seq || !g.inFlight {
		return false
	}
	g.inFlight = false
	return true
}

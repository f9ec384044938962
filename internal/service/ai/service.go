package ai

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/talbothq/talbot/backend/internal/config"
	"github.com/talbothq/talbot/backend/internal/model/chat"
	promptsvc "github.com/talbothq/talbot/backend/internal/service/prompt"
)

// fallbackResponses cover every upstream failure. One is chosen uniformly
// at random, so the user never sees a raw error in the transcript.
var fallbackResponses = []string{
	"I'm here for you, even though I'm having some connection issues right now. How are you feeling?",
	"I'm experiencing some technical difficulties, but I'm still listening. What's on your mind?",
	"Something's not quite working on my end, mate, but I want you to know I'm here. Can you tell me what's going on?",
	"I hit a technical snag, but your feelings are important. What would help you feel supported right now?",
}

// Invoker runs the compiled prompt chain. The compose.Runnable built in
// NewService satisfies it; tests substitute their own.
type Invoker interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
}

// NameTracker is the profile-side hook for name-usage accounting.
type NameTracker interface {
	PreferredName() string
	RecordNameUse()
}

// Reply is the pipeline's terminal state for one user turn. Exactly one
// of the flags is set on a degraded path; both clear means a filtered
// upstream reply.
type Reply struct {
	Content  string
	Crisis   bool
	Fallback bool
}

// Service is the response pipeline: crisis check, upstream call, reply
// filter, fallback. It never returns an error to its caller.
type Service struct {
	chain Invoker
	names NameTracker
	pick  func(n int) int
}

// NewService compiles the prompt chain against the configured chat model.
// Without credentials the service still works: every non-crisis turn
// takes the fallback path.
func NewService(ctx context.Context, cfg config.AIConfig, names NameTracker) (*Service, error) {
	svc := &Service{names: names, pick: rand.Intn}

	if !cfg.Enabled() {
		log.Printf("[ai] no chat model configured, running in fallback-only mode")
		return svc, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// NewServiceWithInvoker wires a pre-built invoker. Used by tests.
func NewServiceWithInvoker(chain Invoker, names NameTracker) *Service {
	return &Service{chain: chain, names: names, pick: rand.Intn}
}

// Respond runs one user turn through the pipeline. Crisis language wins
// over everything else and never reaches the upstream model.
func (s *Service) Respond(ctx context.Context, p promptsvc.Payload) Reply {
	if ContainsCrisisLanguage(p.Message) {
		log.Printf("[ai] crisis language detected, returning safety resources")
		return Reply{Content: CrisisResponse, Crisis: true}
	}

	if s.chain == nil {
		return s.fallback()
	}

	response, err := s.chain.Invoke(ctx, s.buildChainInput(p))
	if err != nil {
		log.Printf("[ai] upstream call failed: %v", err)
		return s.fallback()
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		log.Printf("[ai] upstream returned an empty reply")
		return s.fallback()
	}

	content := FilterReply(response.Content)
	if s.names != nil && MentionsName(content, s.names.PreferredName()) {
		s.names.RecordNameUse()
	}

	log.Printf("[ai] generated reply, length=%d", len(content))
	return Reply{Content: content}
}

func (s *Service) fallback() Reply {
	return Reply{
		Content:  fallbackResponses[s.pick(len(fallbackResponses))],
		Fallback: true,
	}
}

func (s *Service) buildChainInput(p promptsvc.Payload) map[string]any {
	return map[string]any{
		"system":  s.buildSystemText(p),
		"history": buildHistoryMessages(p.History),
		"query":   p.Message,
	}
}

func (s *Service) buildSystemText(p promptsvc.Payload) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	if p.ProfileContext != "" {
		b.WriteString("\n\n")
		b.WriteString(p.ProfileContext)
	}
	if p.MemoryContext != "" {
		b.WriteString("\n\n")
		b.WriteString(p.MemoryContext)
	}
	return b.String()
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

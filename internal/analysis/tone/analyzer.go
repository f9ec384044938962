package tone

import (
	"strings"

	"github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/model/memory"
)

// topicVocabulary is the fixed set of clinical topics Talbot recognises.
// Matching is case-insensitive substring against user-authored text.
var topicVocabulary = []string{
	"anxiety", "depression", "stress", "work", "relationship", "family",
	"therapy", "medication", "sleep", "mood", "panic", "social",
	"confidence", "self-esteem", "trauma", "grief", "anger", "fear",
	"worry", "overthinking", "boundaries", "communication", "conflict",
}

// topicAliases maps inflected forms back to the canonical vocabulary
// entry they stand for: "I'm really anxious" never contains the literal
// word "anxiety", but it is about anxiety all the same.
var topicAliases = map[string][]string{
	"anxiety":    {"anxious"},
	"depression": {"depressed"},
	"worry":      {"worried", "worrying"},
	"anger":      {"angry"},
	"fear":       {"afraid", "scared"},
	"grief":      {"grieving", "grieve"},
}

// toneWords maps each tone to its indicator words. Shorter stems like
// "stress" deliberately also catch "stressed" and "stressful".
var toneWords = map[memory.Tone][]string{
	memory.ToneAnxious:  {"anxious", "worried", "stress", "panic", "nervous"},
	memory.ToneSad:      {"sad", "depressed", "down", "hopeless", "empty"},
	memory.ToneAngry:    {"angry", "frustrated", "mad", "irritated", "annoyed"},
	memory.TonePositive: {"good", "better", "happy", "grateful", "hopeful"},
}

// toneOrder fixes the tie-break: when two tones score equally, the one
// listed first wins. All-zero scores mean neutral.
var toneOrder = []memory.Tone{
	memory.ToneAnxious,
	memory.ToneSad,
	memory.ToneAngry,
	memory.TonePositive,
}

// themePatterns maps each theme tag to the phrases that signal it.
var themePatterns = map[string][]string{
	"coping-strategies": {"cope", "manage", "deal with", "handle"},
	"therapy-goals":     {"goal", "working on", "trying to", "want to change"},
	"relationships":     {"relationship", "partner", "friend", "family"},
	"work-stress":       {"work", "job", "boss", "career", "colleague"},
}

// themeOrder keeps theme extraction deterministic across runs.
var themeOrder = []string{"coping-strategies", "therapy-goals", "relationships", "work-stress"}

// Topics extracts recognised topics from user-authored messages, in the
// order first encountered, without duplicates.
func Topics(messages []chat.Message) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, msg := range messages {
		if msg.Sender != chat.SenderUser {
			continue
		}
		text := strings.ToLower(msg.Content)
		for _, keyword := range topicVocabulary {
			if mentionsTopic(text, keyword) && !seen[keyword] {
				seen[keyword] = true
				topics = append(topics, keyword)
			}
		}
	}
	return topics
}

func mentionsTopic(text, keyword string) bool {
	if strings.Contains(text, keyword) {
		return true
	}
	for _, alias := range topicAliases[keyword] {
		if strings.Contains(text, alias) {
			return true
		}
	}
	return false
}

// Analyze returns the dominant emotional tone across user-authored
// messages: the tone whose indicator words occur most often, neutral when
// none occur at all.
func Analyze(messages []chat.Message) memory.Tone {
	counts := make(map[memory.Tone]int)
	for _, msg := range messages {
		if msg.Sender != chat.SenderUser {
			continue
		}
		text := strings.ToLower(msg.Content)
		for t, words := range toneWords {
			for _, word := range words {
				if strings.Contains(text, word) {
					counts[t]++
				}
			}
		}
	}

	best := memory.ToneNeutral
	bestCount := 0
	for _, t := range toneOrder {
		if counts[t] > bestCount {
			bestCount = counts[t]
			best = t
		}
	}
	return best
}

// Themes extracts theme tags whose phrase patterns appear in any
// user-authored message.
func Themes(messages []chat.Message) []string {
	var themes []string
	for _, theme := range themeOrder {
		if hasTheme(messages, themePatterns[theme]) {
			themes = append(themes, theme)
		}
	}
	return themes
}

func hasTheme(messages []chat.Message, patterns []string) bool {
	for _, msg := range messages {
		if msg.Sender != chat.SenderUser {
			continue
		}
		text := strings.ToLower(msg.Content)
		for _, pattern := range patterns {
			if strings.Contains(text, pattern) {
				return true
			}
		}
	}
	return false
}

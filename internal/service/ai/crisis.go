package ai

import "strings"

// crisisKeywords triggers the deterministic crisis branch. Matching is
// case-insensitive substring, so "thinking about suicide" and "suicidal"
// both hit. Never reorder the safety response behind this list.
var crisisKeywords = []string{
	"hurt myself",
	"hurting myself",
	"harm myself",
	"self-harm",
	"kill myself",
	"killing myself",
	"suicide",
	"suicidal",
	"end it all",
	"end my life",
	"not worth living",
	"no reason to live",
	"better off dead",
	"want to die",
}

// CrisisResponse is the fixed, pre-approved safety message. No
// randomization and no upstream call on this path.
const CrisisResponse = `I'm really concerned about what you're sharing, mate. These thoughts about hurting yourself are serious, and I want you to get proper support right away.

Please reach out for immediate help:
• Emergency Services: 000
• Lifeline: 13 11 14
• Beyond Blue: 1300 22 4636

You don't have to go through this alone. There are people who want to help you right now. Can you reach out to one of these services or someone you trust?`

// ContainsCrisisLanguage reports whether the message matches any crisis
// keyword.
func ContainsCrisisLanguage(message string) bool {
	text := strings.ToLower(message)
	for _, keyword := range crisisKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

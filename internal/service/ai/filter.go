package ai

import (
	"regexp"
	"strings"
)

// termReplacement swaps one clinical or technical term for plainer
// language before the reply reaches the user.
type termReplacement struct {
	pattern     *regexp.Regexp
	replacement string
}

// replyFilters rewrites terms that make replies read like documentation
// instead of conversation. Whole-word, case-insensitive.
var replyFilters = []termReplacement{
	{regexp.MustCompile(`(?i)\btechniques\b`), "ways that might help"},
	{regexp.MustCompile(`(?i)\bstrategies\b`), "things you can try"},
	{regexp.MustCompile(`(?i)\bimplement\b`), "try"},
	{regexp.MustCompile(`(?i)\butilize\b`), "use"},
	{regexp.MustCompile(`(?i)\bAdditionally\b`), "Also"},
	{regexp.MustCompile(`(?i)\bFurthermore\b`), "And"},
	{regexp.MustCompile(`(?i)\blanguage model\b`), "companion"},
	{regexp.MustCompile(`(?i)\bAI assistant\b`), "companion"},
	{regexp.MustCompile(`(?i)\bchatbot\b`), "companion"},
}

// FilterReply applies the term replacements to a successful upstream
// reply. Crisis and fallback text never pass through here.
func FilterReply(reply string) string {
	for _, f := range replyFilters {
		reply = f.pattern.ReplaceAllString(reply, f.replacement)
	}
	return reply
}

// MentionsName reports whether the reply uses the given preferred name,
// case-insensitively. An empty name never matches.
func MentionsName(reply, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(reply), strings.ToLower(name))
}

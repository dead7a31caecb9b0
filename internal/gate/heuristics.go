package gate

import (
	"regexp"
	"strings"
)

// The content heuristics are intentionally conservative: a public lead form
// attracts link droppers and template spam, and a false positive costs one
// manual email while a false negative costs inbox noise every day.

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// ValidEmail reports whether s matches the basic local@domain.tld shape. The
// same check gates the form and the inbound API contract.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var urlPattern = regexp.MustCompile(`(?i)https?://`)

// spamKeywords are matched case-insensitively as whole words against the
// combined free-text fields.
var spamKeywords = []string{
	"seo",
	"backlink",
	"backlinks",
	"bitcoin",
	"crypto",
	"casino",
	"viagra",
	"loan",
	"promotion",
	"click here",
	"buy now",
	"free money",
	"guaranteed",
	"earn money",
	"web design services",
}

var spamPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(escapeAll(spamKeywords), "|") + `)\b`)

// floodThreshold is the run length of a single repeated character that marks
// a draft as flood text.
const floodThreshold = 5

const contentRejection = "Your message couldn't be submitted. Please remove any links or promotional content."

// checkContent applies the heuristics to the combined free-text fields and
// returns a user-displayable rejection reason, or "" when the text passes.
func checkContent(text string) string {
	if urlPattern.MatchString(text) {
		return contentRejection
	}
	if spamPattern.MatchString(text) {
		return contentRejection
	}
	if hasCharacterFlood(text) {
		return contentRejection
	}
	return ""
}

// hasCharacterFlood reports whether any single character repeats
// floodThreshold or more times consecutively.
func hasCharacterFlood(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= floodThreshold {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func escapeAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}

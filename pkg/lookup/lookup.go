// Package lookup fetches short encyclopedia summaries used to ground prompts.
package lookup

import (
	"context"
	"strings"
)

// DefaultTrigger is the keyword that turns a message into a lookup request.
const DefaultTrigger = "search"

// Summary is a short encyclopedia extract for a topic.
type Summary struct {
	Title   string
	Extract string
	URL     string
}

// Lookuper resolves a topic into a Summary.
type Lookuper interface {
	Lookup(ctx context.Context, topic string) (Summary, error)
}

// Topic derives a lookup topic from user text. The text triggers a lookup when
// its lowercased form contains trigger. The topic is the lowercased text with
// the first occurrence of trigger removed, then trimmed. The topic may be
// empty even when triggered is true (e.g. the text was just "search").
func Topic(text, trigger string) (topic string, triggered bool) {
	trigger = strings.ToLower(trigger)
	if trigger == "" {
		trigger = DefaultTrigger
	}

	lower := strings.ToLower(text)
	if !strings.Contains(lower, trigger) {
		return "", false
	}

	return strings.TrimSpace(strings.Replace(lower, trigger, "", 1)), true
}

package models

import (
	"regexp"
	"strings"
	"time"
)

// SearchQuery describes one platform search: the topic, an optional
// comma-separated keyword filter and an optional publication window.
type SearchQuery struct {
	Topic    string
	Keywords string // raw comma-separated filter; "" means unconstrained
	// Publication window bounds. Zero values mean "use the adapter default".
	PublishedAfter  time.Time
	PublishedBefore time.Time
	MaxResults      int64
}

// keywordSeparator splits on ASCII and full-width commas, the two forms the
// filter accepts.
var keywordSeparator = regexp.MustCompile(`[、,]`)

// SplitKeywords breaks the raw filter into trimmed alternatives. Empty input
// yields nil, meaning no keyword constraint.
func SplitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var words []string
	for _, w := range keywordSeparator.Split(raw, -1) {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

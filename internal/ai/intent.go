package ai

import (
	"strings"
)

// Intent is the classified purpose of a user's question about a video
type Intent string

const (
	IntentSummarize Intent = "summarize"
	IntentSearch    Intent = "search"
	IntentFactCheck Intent = "fact_check"
	IntentUnknown   Intent = "unknown"
)

// String returns the intent name
func (i Intent) String() string {
	return string(i)
}

type intentRule struct {
	intent   Intent
	keywords []string
}

// intentRules is evaluated top to bottom; the first rule with a matching keyword wins.
// Keywords match as plain substrings of the lowercased query, so "research"
// hits "search" and "checking" hits "check".
var intentRules = []intentRule{
	{
		intent:   IntentSummarize,
		keywords: []string{"summarize", "key points", "summary", "main ideas"},
	},
	{
		intent:   IntentSearch,
		keywords: []string{"search", "find more", "look up", "additional info"},
	},
	{
		intent:   IntentFactCheck,
		keywords: []string{"fact-check", "verify", "is this true", "check"},
	},
}

// ClassifyIntent maps a free-text query to an Intent
func ClassifyIntent(query string) Intent {
	query = strings.ToLower(query)

	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(query, keyword) {
				return rule.intent
			}
		}
	}

	return IntentUnknown
}

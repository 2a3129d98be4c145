package main

import (
	"regexp"
	"strings"
)

// quotedPhraseRe matches a phrase opened by a quote and closed by the next
// occurrence of the same quote character on the same line
var quotedPhraseRe = regexp.MustCompile(`"[^"\n]*"|'[^'\n]*'`)

// SearchToken is a single term of a search expression
type SearchToken struct {
	Text    string
	Literal bool // Quoted phrase, interior whitespace preserved
}

// tokenizeSearch splits a raw search string into bare words followed by
// quoted literal phrases
func tokenizeSearch(raw string) []SearchToken {
	var phrases []SearchToken

	for _, match := range quotedPhraseRe.FindAllString(raw, -1) {
		phrases = append(phrases, SearchToken{Text: match[1 : len(match)-1], Literal: true})
	}

	sanitized := quotedPhraseRe.ReplaceAllString(raw, "")

	var tokens []SearchToken

	for _, word := range strings.Fields(sanitized) {
		tokens = append(tokens, SearchToken{Text: word})
	}

	return append(tokens, phrases...)
}

// matchesAllTokens reports whether text contains every token, ignoring case
func matchesAllTokens(text string, tokens []SearchToken) bool {
	folded := strings.ToLower(text)

	for _, token := range tokens {
		if !strings.Contains(folded, strings.ToLower(token.Text)) {
			return false
		}
	}

	return true
}

// filterItems keeps the items whose original text matches every token
func filterItems(items []*TodoItem, tokens []SearchToken) []*TodoItem {
	if len(tokens) == 0 {
		return items
	}

	return Filter(items, func(item *TodoItem) bool {
		return matchesAllTokens(item.OriginalText, tokens)
	})
}

// Filter returns elements from slice that satisfy the predicate
func Filter[T any](slice []T, predicate func(T) bool) []T {
	var result []T
	for _, v := range slice {
		if predicate(v) {
			result = append(result, v)
		}
	}
	return result
}

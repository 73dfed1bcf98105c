package services

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Source is one citation extracted from a document Q&A answer.
type Source struct {
	Name string `json:"name"`
	Page string `json:"page"`
}

var sourcePattern = regexp.MustCompile(`(?i)\[Source: (.*?), Page: (.*?)\]`)

// loadBlockedTerms reads the BLOCKED_TERMS env var (comma separated,
// lower-cased). Empty means the filter passes everything through.
func loadBlockedTerms() []string {
	raw := os.Getenv("BLOCKED_TERMS")
	if raw == "" {
		return nil
	}
	var terms []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// FilterContent screens an incoming message against the blocked term list.
// The second return is true when the message was rejected; the first then
// holds the refusal text to show instead of an answer.
func FilterContent(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, term := range loadBlockedTerms() {
		if strings.Contains(lower, term) {
			return "I cannot process this request due to inappropriate language.", true
		}
	}
	return text, false
}

// CheckResponseConfidence enforces the citation rule on a document Q&A
// answer: an explicit "not confident" answer is normalized, and an answer
// with no citation is downgraded to a verify-this response.
func CheckResponseConfidence(response string) string {
	if strings.Contains(strings.ToLower(response), "i'm not confident") {
		return "I'm not confident I can answer that based on the provided documents. Please try rephrasing your question."
	}
	if !sourcePattern.MatchString(response) {
		return fmt.Sprintf("I found some information, but I'm not confident it directly answers your question. Please verify this: %q", response)
	}
	return response
}

// ExtractSources splits a cited answer into the display text and its list of
// sources. The display text is everything before the first citation marker.
func ExtractSources(response string) (string, []Source) {
	sources := []Source{}
	for _, m := range sourcePattern.FindAllStringSubmatch(response, -1) {
		sources = append(sources, Source{Name: m[1], Page: m[2]})
	}
	answer := response
	if loc := sourcePattern.FindStringIndex(response); loc != nil {
		answer = response[:loc[0]]
	}
	return strings.TrimSpace(answer), sources
}

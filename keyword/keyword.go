package keyword

import (
	"slices"
	"strings"
)

// Baseline safety terms the agent never engages with or produces, regardless
// of configuration. Configured negative keywords are merged on top.
var baseBlocklist = []string{
	"suicide",
	"suicidal",
	"kys",
	"rape",
	"rapist",
	"nazi",
	"incest",
	"pedo",
	"pedophile",
	"terrorist",
	"beheading",
	"school shooting",
}

// List is a merged blocklist matched against tokenized text. Multi-word
// terms are matched as token subsequences.
type List struct {
	terms [][]string
}

// NewList merges the baseline safety blocklist with extra configured terms.
func NewList(extra []string) *List {
	l := &List{}
	for _, term := range baseBlocklist {
		l.terms = append(l.terms, Tokenize(term))
	}
	for _, term := range extra {
		toks := Tokenize(term)
		if len(toks) > 0 {
			l.terms = append(l.terms, toks)
		}
	}
	return l
}

// Match returns the first blocklist term found in text, or "" if none match.
// Matching is case-insensitive and whole-word: "assist" does not match "ass".
func (l *List) Match(text string) string {
	toks := Tokenize(text)
	for _, term := range l.terms {
		if containsSeq(toks, term) {
			return strings.Join(term, " ")
		}
	}
	return ""
}

func containsSeq(toks, term []string) bool {
	if len(term) == 0 || len(term) > len(toks) {
		return false
	}
	for i := 0; i+len(term) <= len(toks); i++ {
		if slices.Equal(toks[i:i+len(term)], term) {
			return true
		}
	}
	return false
}

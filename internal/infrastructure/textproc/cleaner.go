// Package textproc normalizes submission text ahead of candidate
// selection: lowercase, letters only, stopwords removed.
package textproc

import (
	"strings"
)

type Cleaner struct {
	stopwords map[string]struct{}
}

func NewCleaner() *Cleaner {
	return &Cleaner{stopwords: defaultStopwords()}
}

// Clean lowercases the text, strips everything but letters and spaces,
// and drops stopwords. The result feeds the index query, not the scorers:
// scorers compare raw text.
func (c *Cleaner) Clean(text string) string {
	return strings.Join(c.Tokens(text), " ")
}

// Tokens returns the cleaned token stream in document order, duplicates
// included.
func (c *Cleaner) Tokens(text string) []string {
	if text == "" {
		return nil
	}

	out := make([]string, 0, 64)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if _, isStop := c.stopwords[token]; isStop {
			return
		}
		out = append(out, token)
	}

	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			flush()
		}
	}
	flush()
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again",
		"further", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out",
		"off", "own", "same", "too", "very", "can", "will", "just",
		"should", "now", "not", "no", "nor", "do", "does", "did", "have",
		"has", "had", "he", "she", "they", "them", "his", "her", "their",
		"we", "you", "i", "me", "my", "our", "your", "its", "what",
		"which", "who", "whom", "there", "here", "when", "where", "why",
		"how", "all", "any", "both", "each", "few", "more", "most",
		"other", "some", "only",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

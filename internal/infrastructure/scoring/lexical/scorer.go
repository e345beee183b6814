// Package lexical scores two texts by cosine similarity in a TF-IDF
// vector space built from exactly those two texts. The vocabulary is
// local to the pair, which keeps scoring stateless and embarrassingly
// parallel at the cost of cross-pair comparability.
package lexical

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/verisource/verisource/internal/core/domain"
)

type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Method() string { return domain.MethodLexical }

// Available always reports true: the lexical scorer has no backend.
func (s *Scorer) Available() bool { return true }

// CalculateSimilarity is a pure function of its two inputs. Identical
// texts score ~1, texts sharing no vocabulary score exactly 0.
func (s *Scorer) CalculateSimilarity(_ context.Context, a, b string) (float64, error) {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0, nil
	}

	tfA := termFrequencies(tokensA)
	tfB := termFrequencies(tokensB)

	vocab := make(map[string]struct{}, len(tfA)+len(tfB))
	for term := range tfA {
		vocab[term] = struct{}{}
	}
	for term := range tfB {
		vocab[term] = struct{}{}
	}

	// Smoothed IDF over the two-document collection.
	const n = 2.0
	var dot, normA, normB float64
	for term := range vocab {
		df := 0.0
		if tfA[term] > 0 {
			df++
		}
		if tfB[term] > 0 {
			df++
		}
		idf := math.Log((1+n)/(1+df)) + 1

		wa := float64(tfA[term]) * idf
		wb := float64(tfB[term]) * idf
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return domain.ClampSimilarity(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, token := range tokens {
		tf[token]++
	}
	return tf
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 32)
	var b strings.Builder
	flush := func() {
		// Single-rune tokens carry no lexical signal.
		if b.Len() > 1 {
			out = append(out, b.String())
		}
		b.Reset()
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}

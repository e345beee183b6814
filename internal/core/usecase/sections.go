package usecase

import (
	"strings"

	"github.com/verisource/verisource/internal/core/domain"
)

// locateSections flags submission sentences found verbatim inside
// high-similarity candidates. The check is a deliberately conservative
// case-insensitive substring match: paraphrased overlap is not flagged
// here, trading recall for a near-zero false-positive rate. Cost is
// O(sentences x qualifying entries), bounded by the candidate cap.
func locateSections(rawText string, entries []domain.ScoreEntry, cfg DetectConfig) []domain.PlagiarizedSection {
	qualifying := make([]domain.ScoreEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Similarity > cfg.SectionSimilarityThreshold && entry.Content != "" {
			qualifying = append(qualifying, entry)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	loweredContents := make([]string, len(qualifying))
	for i, entry := range qualifying {
		loweredContents[i] = strings.ToLower(entry.Content)
	}

	var sections []domain.PlagiarizedSection
	for i, sentence := range strings.Split(rawText, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < cfg.MinSentenceLength {
			continue
		}
		lowered := strings.ToLower(sentence)
		for j, entry := range qualifying {
			if !strings.Contains(loweredContents[j], lowered) {
				continue
			}
			sections = append(sections, domain.PlagiarizedSection{
				SentenceIndex: i,
				Sentence:      sentence,
				Similarity:    entry.Similarity,
				Source:        entry.Title,
				SourceID:      entry.DocID,
			})
		}
	}
	return sections
}

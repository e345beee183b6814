package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verisource/verisource/internal/core/domain"
)

func synthesizeReport(
	rawText string,
	agg aggregation,
	sections []domain.PlagiarizedSection,
	methods []string,
	candidatesChecked int,
	now time.Time,
) *domain.Report {
	sources := agg.sources
	if sources == nil {
		sources = []domain.SourceSummary{}
	}
	if sections == nil {
		sections = []domain.PlagiarizedSection{}
	}

	level := classifyPlagiarismLevel(agg.overallScore)
	return &domain.Report{
		ReportID:            newReportID(now),
		Timestamp:           now.UTC(),
		OverallScore:        agg.overallScore,
		PlagiarismLevel:     level,
		DetectionMethods:    methods,
		TotalSourcesChecked: candidatesChecked,
		Sources:             sources,
		PlagiarizedSections: sections,
		DocumentStats:       documentStats(rawText),
		Recommendations:     buildRecommendations(level, len(sections)),
	}
}

// classifyPlagiarismLevel maps the overall score onto fixed bands.
func classifyPlagiarismLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "High"
	case score >= 0.5:
		return "Moderate"
	case score >= 0.2:
		return "Low"
	default:
		return "Minimal"
	}
}

// classifyRiskLevel maps a single source similarity onto fixed bands.
func classifyRiskLevel(similarity float64) string {
	switch {
	case similarity >= 0.8:
		return "High Risk"
	case similarity >= 0.5:
		return "Medium Risk"
	case similarity >= 0.3:
		return "Low Risk"
	default:
		return "Safe"
	}
}

func buildRecommendations(level string, sectionCount int) []string {
	recommendations := make([]string, 0, 4)
	switch level {
	case "High":
		recommendations = append(recommendations, "High plagiarism detected. Consider a complete rewrite of affected sections.")
	case "Moderate":
		recommendations = append(recommendations, "Moderate plagiarism detected. Review and paraphrase affected content.")
	case "Low":
		recommendations = append(recommendations, "Low plagiarism detected. Ensure proper citations are added.")
	default:
		recommendations = append(recommendations, "No significant plagiarism detected. Document appears original.")
	}
	if sectionCount > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Pay special attention to %d identified sections.", sectionCount))
	}
	recommendations = append(recommendations,
		"Always cite sources properly when using external content.",
		"Consider using plagiarism detection tools before submission.",
	)
	return recommendations
}

func documentStats(text string) domain.DocumentStats {
	words := strings.Fields(text)
	sentences := strings.Split(text, ".")

	avgWordsPerSentence := 0.0
	if len(sentences) > 0 {
		avgWordsPerSentence = float64(len(words)) / float64(len(sentences))
	}

	return domain.DocumentStats{
		WordCount:               len(words),
		SentenceCount:           len(sentences),
		CharacterCount:          len(text),
		AverageWordsPerSentence: avgWordsPerSentence,
		ReadingLevel:            estimateReadingLevel(words, len(sentences)),
	}
}

// estimateReadingLevel buckets the document by average word length and
// average sentence length.
func estimateReadingLevel(words []string, sentenceCount int) string {
	if len(words) == 0 || sentenceCount == 0 {
		return "Unknown"
	}

	totalLen := 0
	for _, word := range words {
		totalLen += len(word)
	}
	avgWordLength := float64(totalLen) / float64(len(words))
	avgSentenceLength := float64(len(words)) / float64(sentenceCount)

	switch {
	case avgWordLength > 6 && avgSentenceLength > 20:
		return "Advanced"
	case avgWordLength > 4 && avgSentenceLength > 15:
		return "Intermediate"
	default:
		return "Basic"
	}
}

// newReportID combines a second-resolution human-readable stamp with a
// hash over nanosecond time and fresh entropy, so ids issued within the
// same second remain distinct.
func newReportID(now time.Time) string {
	stamp := now.UTC().Format("20060102T150405")
	sum := sha256.Sum256([]byte(strconv.FormatInt(now.UnixNano(), 10) + uuid.NewString()))
	return fmt.Sprintf("RPT_%s_%s", stamp, hex.EncodeToString(sum[:4]))
}

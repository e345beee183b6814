package domain

// Detection method identifiers. New scorers register a weight in config
// and emit entries under their own method name.
const (
	MethodLexical  = "lexical"
	MethodSemantic = "semantic"
)

// ScoreEntry is one similarity measurement for one candidate under one
// method. Similarity is always clamped to [0,1]. Entries are consumed
// only within the detection run that produced them.
type ScoreEntry struct {
	DocID      int64   `json:"doc_id"`
	Title      string  `json:"title"`
	Content    string  `json:"-"`
	Method     string  `json:"method"`
	Similarity float64 `json:"similarity"`
}

// ClampSimilarity forces a raw scorer output into [0,1].
func ClampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

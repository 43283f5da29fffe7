package domain

// QueryAnalysis is the derived view of one user query, produced once per
// query cycle and never persisted. Each category list is non-empty: the
// analyzer fills in a sentinel default when no trigger fires, so consumers
// can index into the result without absence checks.
type QueryAnalysis struct {
	Emotion      []string `json:"emotion"`
	Intent       []string `json:"intent"`
	Tone         []string `json:"tone"`
	Keywords     []string `json:"keywords"`
	OriginalText string   `json:"original_text"`
}

// Sentinel values used when no category trigger matches.
const (
	EmotionNeutral = "neutral"
	IntentGeneral  = "general"
	ToneNeutral    = "neutral"
)

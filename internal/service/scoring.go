package service

import (
	"context"
	"sort"

	"github.com/timmy/memematch/internal/config"
	"github.com/timmy/memematch/internal/domain"
	"github.com/timmy/memematch/internal/logger"
)

// neutralSubScore is used when a dimension carries no signal: missing tags,
// missing keywords, or an embedding failure all degrade to it instead of
// penalizing the candidate.
const neutralSubScore = 0.5

// VectorIndex looks up precomputed meme embeddings. Retrieve returns
// (nil, nil) when the meme has no stored vector.
type VectorIndex interface {
	Retrieve(ctx context.Context, memeID string) ([]float32, error)
}

// Scorer computes weighted match scores between an analyzed query and the
// meme catalog.
type Scorer struct {
	expander *Expander
	embedder EmbeddingProvider
	vectors  VectorIndex // optional, may be nil
	log      *logger.Logger
	weights  config.MatchConfig
}

// NewScorer creates a scoring engine. vectors may be nil, in which case meme
// embeddings are always computed live.
func NewScorer(expander *Expander, embedder EmbeddingProvider, vectors VectorIndex, log *logger.Logger, weights config.MatchConfig) *Scorer {
	return &Scorer{
		expander: expander,
		embedder: embedder,
		vectors:  vectors,
		log:      log,
		weights:  weights,
	}
}

// RankMemes scores every candidate against the query and returns the topK
// best in descending score order. The query is embedded once and reused
// across all candidates. Ties keep catalog order.
func (s *Scorer) RankMemes(ctx context.Context, memes []domain.Meme, queryText string, analysis *domain.QueryAnalysis, topK int) []domain.ScoredCandidate {
	if len(memes) == 0 {
		return []domain.ScoredCandidate{}
	}

	expandedKeywords := s.expander.Expand(analysis.Keywords)

	queryVector, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("query embedding failed, semantic scores degrade to neutral")
		queryVector = nil
	}

	scored := make([]domain.ScoredCandidate, 0, len(memes))
	for i := range memes {
		meme := &memes[i]
		score := s.weights.EmotionWeight*tagOverlapScore(analysis.Emotion, meme.Emotion) +
			s.weights.IntentWeight*tagOverlapScore(analysis.Intent, meme.Intent) +
			s.weights.KeywordWeight*keywordScore(expandedKeywords, meme.Keywords) +
			s.weights.SemanticWeight*s.semanticScore(ctx, meme, queryVector)
		scored = append(scored, domain.ScoredCandidate{Meme: meme, Score: clamp01(score)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// tagOverlapScore compares two tag sets: neutral when either side is empty,
// full credit on any shared tag, none otherwise.
func tagOverlapScore(query, meme []string) float64 {
	if len(query) == 0 || len(meme) == 0 {
		return neutralSubScore
	}
	if intersectionSize(query, meme) > 0 {
		return 1.0
	}
	return 0.0
}

// keywordScore measures overlap between the expanded query keywords and the
// meme's keywords, scaled so that matching half the larger set already gives
// full credit.
func keywordScore(expandedQuery, memeKeywords []string) float64 {
	if len(memeKeywords) == 0 {
		return neutralSubScore
	}

	shared := intersectionSize(expandedQuery, memeKeywords)
	if shared == 0 {
		return 0.0
	}

	larger := len(memeKeywords)
	if len(expandedQuery) > larger {
		larger = len(expandedQuery)
	}
	ratio := 2.0 * float64(shared) / float64(larger)
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

// semanticScore compares the query vector against the meme's embedding,
// preferring the precomputed index and falling back to a live call. Any
// failure degrades to the neutral score so one flaky dimension cannot sink
// a candidate.
func (s *Scorer) semanticScore(ctx context.Context, meme *domain.Meme, queryVector []float32) float64 {
	if queryVector == nil {
		return neutralSubScore
	}

	memeVector := s.lookupVector(ctx, meme.ID)
	if memeVector == nil {
		text := meme.RepresentativeText()
		if text == "" {
			return neutralSubScore
		}
		var err error
		memeVector, err = s.embedder.Embed(ctx, text)
		if err != nil {
			logger.FromContext(ctx).WithError(err).WithField("meme_id", meme.ID).
				Warn("meme embedding failed, using neutral semantic score")
			return neutralSubScore
		}
	}

	return CosineSimilarity(queryVector, memeVector)
}

func (s *Scorer) lookupVector(ctx context.Context, memeID string) []float32 {
	if s.vectors == nil {
		return nil
	}
	vector, err := s.vectors.Retrieve(ctx, memeID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("meme_id", memeID).
			Debug("vector index lookup failed, computing embedding live")
		return nil
	}
	return vector
}

func intersectionSize(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := set[s]; ok {
			count++
		}
	}
	return count
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

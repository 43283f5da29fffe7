package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/timmy/memematch/internal/domain"
	"github.com/timmy/memematch/internal/logger"
)

// ErrNoMatch is returned when a selection protocol finds nothing to offer.
var ErrNoMatch = errors.New("no matching meme")

// responseTemplates are the captions attached to a delivered meme.
var responseTemplates = []string{"這張給你！", "希望這張適合你", "找到了！"}

// Catalog is the slice of the repository the selector needs.
type Catalog interface {
	GetAll(ctx context.Context) []domain.Meme
	SearchByAlias(ctx context.Context, query string, limit int) ([]domain.AliasMatch, error)
}

// AliasSelection is the outcome of an alias lookup. Exactly one of Direct or
// Candidates is set: a single strong match resolves directly, multiple
// matches ask the caller to disambiguate.
type AliasSelection struct {
	Direct     *domain.AliasMeme
	Candidates []domain.AliasMatch
}

// Selector implements the meme selection protocols on top of the catalog and
// the scoring engine.
type Selector struct {
	catalog Catalog
	scorer  *Scorer
	topK    int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector. rng controls all random picks so callers
// can seed it for reproducible behavior; pass nil for a time-seeded source.
func NewSelector(catalog Catalog, scorer *Scorer, topK int, rng *rand.Rand) *Selector {
	if topK <= 0 {
		topK = 3
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Selector{
		catalog: catalog,
		scorer:  scorer,
		topK:    topK,
		rng:     rng,
	}
}

// SuggestByAnalysis ranks the whole catalog against the analyzed query and
// returns one of the two best candidates, chosen at random so repeated
// queries don't always surface the same meme.
func (s *Selector) SuggestByAnalysis(ctx context.Context, queryText string, analysis *domain.QueryAnalysis) (*domain.ScoredCandidate, error) {
	memes := s.catalog.GetAll(ctx)
	if len(memes) == 0 {
		return nil, ErrNoMatch
	}

	ranked := s.scorer.RankMemes(ctx, memes, queryText, analysis, s.topK)
	if len(ranked) == 0 {
		return nil, ErrNoMatch
	}

	pool := 2
	if len(ranked) < pool {
		pool = len(ranked)
	}
	pick := ranked[s.intn(pool)]

	logger.FromContext(ctx).WithFields(logger.Fields{
		"meme_id": pick.Meme.ID,
		"score":   pick.Score,
	}).Info("selected meme from ranked candidates")

	return &pick, nil
}

// SelectByAlias resolves a query against the alias catalog. One match is a
// direct hit, several become a disambiguation set, none is ErrNoMatch.
func (s *Selector) SelectByAlias(ctx context.Context, query string, limit int) (*AliasSelection, error) {
	matches, err := s.catalog.SearchByAlias(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, ErrNoMatch
	case 1:
		return &AliasSelection{Direct: matches[0].Meme}, nil
	default:
		return &AliasSelection{Candidates: matches}, nil
	}
}

// SelectRandom samples count memes from the catalog without replacement.
// Fewer than count memes returns the whole catalog in random order.
func (s *Selector) SelectRandom(ctx context.Context, count int) ([]domain.Meme, error) {
	memes := s.catalog.GetAll(ctx)
	if len(memes) == 0 {
		return nil, ErrNoMatch
	}
	if count <= 0 {
		count = 1
	}
	if count > len(memes) {
		count = len(memes)
	}

	s.mu.Lock()
	s.rng.Shuffle(len(memes), func(i, j int) {
		memes[i], memes[j] = memes[j], memes[i]
	})
	s.mu.Unlock()

	return memes[:count], nil
}

// ResponseCaption returns a random caption to accompany a delivered meme.
func (s *Selector) ResponseCaption() string {
	return responseTemplates[s.intn(len(responseTemplates))]
}

func (s *Selector) intn(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/timmy/memematch/internal/domain"
	"github.com/timmy/memematch/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultAliasThreshold is the minimum trigram similarity an alias must
// reach to count as a match.
const DefaultAliasThreshold = 0.3

// CatalogRepository handles catalog data operations over both meme schemas.
type CatalogRepository struct {
	db             *gorm.DB
	logger         *logger.Logger
	aliasThreshold float64
}

// NewCatalogRepository creates a new CatalogRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//   - log: logger for fail-soft error reporting.
//   - aliasThreshold: minimum alias similarity; <=0 uses DefaultAliasThreshold.
// Returns:
//   - *CatalogRepository: repository instance bound to db.
func NewCatalogRepository(db *gorm.DB, log *logger.Logger, aliasThreshold float64) *CatalogRepository {
	if log == nil {
		log = logger.GetDefault()
	}
	if aliasThreshold <= 0 {
		aliasThreshold = DefaultAliasThreshold
	}
	return &CatalogRepository{db: db, logger: log, aliasThreshold: aliasThreshold}
}

// GetAll returns a full snapshot of the structured-tag catalog. Read failures
// are logged and reported as an empty slice, never raised: the matching
// pipeline must keep returning usable (if empty) results when the catalog is
// unreachable.
func (r *CatalogRepository) GetAll(ctx context.Context) []domain.Meme {
	var memes []domain.Meme
	if err := r.db.WithContext(ctx).Find(&memes).Error; err != nil {
		logger.CtxError(ctx, "Failed to load meme catalog: error=%v", err)
		return []domain.Meme{}
	}
	return memes
}

// GetByID retrieves a structured-tag meme by its ID.
// Returns gorm.ErrRecordNotFound when absent.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.Meme, error) {
	var meme domain.Meme
	if err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meme, nil
}

// List retrieves structured-tag memes with pagination.
func (r *CatalogRepository) List(ctx context.Context, limit, offset int) ([]domain.Meme, error) {
	var memes []domain.Meme
	if err := r.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Order("id").
		Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

// Upsert creates or updates a structured-tag meme keyed by ID.
func (r *CatalogRepository) Upsert(ctx context.Context, meme *domain.Meme) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(meme).Error
}

// Count returns the number of structured-tag memes.
func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Meme{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetAllAlias returns a full snapshot of the alias-tag catalog, fail-soft
// like GetAll.
func (r *CatalogRepository) GetAllAlias(ctx context.Context) []domain.AliasMeme {
	var memes []domain.AliasMeme
	if err := r.db.WithContext(ctx).Find(&memes).Error; err != nil {
		logger.CtxError(ctx, "Failed to load alias catalog: error=%v", err)
		return []domain.AliasMeme{}
	}
	return memes
}

// GetAliasByID retrieves an alias-tag meme by its ID.
func (r *CatalogRepository) GetAliasByID(ctx context.Context, id string) (*domain.AliasMeme, error) {
	var meme domain.AliasMeme
	if err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meme, nil
}

// UpsertAlias creates or updates an alias-tag meme keyed by ID.
func (r *CatalogRepository) UpsertAlias(ctx context.Context, meme *domain.AliasMeme) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(meme).Error
}

// CountAlias returns the number of alias-tag memes.
func (r *CatalogRepository) CountAlias(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.AliasMeme{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchByAlias performs fuzzy trigram search over every alias of every
// alias-tag meme. A record matches when its best alias similarity exceeds
// the configured threshold. Results are ordered by descending best-alias
// similarity and capped at limit. An empty slice (not an error) means
// nothing cleared the threshold.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - query: free-text query to match against aliases.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.AliasMatch: matching records with their similarity.
//   - error: non-nil only if the catalog scan itself fails.
func (r *CatalogRepository) SearchByAlias(ctx context.Context, query string, limit int) ([]domain.AliasMatch, error) {
	if limit <= 0 {
		limit = 3
	}

	var memes []domain.AliasMeme
	if err := r.db.WithContext(ctx).Find(&memes).Error; err != nil {
		return nil, fmt.Errorf("failed to scan alias catalog: %w", err)
	}

	matches := make([]domain.AliasMatch, 0, limit)
	for i := range memes {
		best := 0.0
		for _, alias := range memes[i].Aliases {
			if sim := TrigramSimilarity(alias, query); sim > best {
				best = sim
			}
		}
		if best > r.aliasThreshold {
			matches = append(matches, domain.AliasMatch{Meme: &memes[i], Similarity: best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/memematch/internal/domain"
	"github.com/timmy/memematch/internal/logger"
	"gorm.io/gorm"
)

// UserRepository handles chat users, their query log, and daily rate limits.
type UserRepository struct {
	db         *gorm.DB
	dailyLimit int
}

// NewUserRepository creates a new UserRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//   - dailyLimit: maximum queries per user per day; <=0 disables limiting.
// Returns:
//   - *UserRepository: repository instance bound to db.
func NewUserRepository(db *gorm.DB, dailyLimit int) *UserRepository {
	return &UserRepository{db: db, dailyLimit: dailyLimit}
}

// GetOrCreate returns the user for the given chat user ID, creating it on
// first sight and refreshing the last query time.
func (r *UserRepository) GetOrCreate(ctx context.Context, chatUserID int64) (*domain.User, error) {
	now := time.Now().UTC()

	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "chat_user_id = ?", chatUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = domain.User{
			ChatUserID:    chatUserID,
			LastResetDate: now.Format("2006-01-02"),
			LastQueryTime: &now,
		}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		logger.CtxInfo(ctx, "Created new user: chat_user_id=%d", chatUserID)
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	user.LastQueryTime = &now
	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CheckAndUpdateRateLimit checks whether the user is within the daily query
// budget and consumes one unit when allowed. The counter resets when the
// calendar day (UTC) changes. Store errors fail open: a broken user store
// should degrade rate limiting, not suggestions.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - chatUserID: external chat user ID.
// Returns:
//   - bool: true if the query may proceed.
//   - int: remaining budget after this query (0 when exhausted or unknown).
func (r *UserRepository) CheckAndUpdateRateLimit(ctx context.Context, chatUserID int64) (bool, int) {
	if r.dailyLimit <= 0 {
		return true, 0
	}

	now := time.Now().UTC()
	today := now.Format("2006-01-02")

	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "chat_user_id = ?", chatUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = domain.User{
			ChatUserID:      chatUserID,
			DailyQueryCount: 1,
			LastResetDate:   today,
			LastQueryTime:   &now,
		}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			logger.CtxError(ctx, "Failed to create user for rate limit, allowing query: error=%v", err)
			return true, 0
		}
		return true, r.dailyLimit - 1
	}
	if err != nil {
		logger.CtxError(ctx, "Rate limit check failed, allowing query: error=%v", err)
		return true, 0
	}

	if user.LastResetDate != today {
		user.DailyQueryCount = 0
		user.LastResetDate = today
	}

	if user.DailyQueryCount >= r.dailyLimit {
		return false, 0
	}

	user.DailyQueryCount++
	user.LastQueryTime = &now
	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		logger.CtxError(ctx, "Failed to persist rate limit counter, allowing query: error=%v", err)
		return true, 0
	}

	logger.CtxDebug(ctx, "User query count: chat_user_id=%d, count=%d/%d",
		chatUserID, user.DailyQueryCount, r.dailyLimit)
	return true, r.dailyLimit - user.DailyQueryCount
}

// CreateQuery logs one user query. queryText is nil for random selection.
// Returns the query record so the caller can hand its ID to the selection
// callback.
func (r *UserRepository) CreateQuery(ctx context.Context, chatUserID int64, queryText *string) (*domain.UserQuery, error) {
	user, err := r.GetOrCreate(ctx, chatUserID)
	if err != nil {
		return nil, err
	}

	query := domain.UserQuery{
		UserID:    user.ID,
		QueryText: queryText,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&query).Error; err != nil {
		return nil, err
	}
	return &query, nil
}

// RecordSelection stores the meme the user picked for a logged query. When
// queryID is zero the most recent unselected query of the user is updated.
func (r *UserRepository) RecordSelection(ctx context.Context, chatUserID int64, memeID string, queryID uint) error {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "chat_user_id = ?", chatUserID).Error; err != nil {
		return err
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", user.ID)
	if queryID != 0 {
		q = q.Where("id = ?", queryID)
	} else {
		q = q.Where("selected_meme_id IS NULL").Order("created_at DESC").Order("id DESC")
	}

	var query domain.UserQuery
	if err := q.First(&query).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	query.SelectedMemeID = &memeID
	query.UpdatedAt = &now
	return r.db.WithContext(ctx).Save(&query).Error
}

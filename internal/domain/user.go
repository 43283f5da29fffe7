package domain

import "time"

// User stores a chat user and their daily query budget. ChatUserID is the
// identifier assigned by the external chat transport.
type User struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatUserID      int64      `gorm:"uniqueIndex:idx_users_chat_user;not null" json:"chat_user_id"`
	DailyQueryCount int        `gorm:"default:0" json:"daily_query_count"`
	LastResetDate   string     `gorm:"type:text" json:"last_reset_date"` // YYYY-MM-DD
	LastQueryTime   *time.Time `json:"last_query_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// UserQuery logs one query and, once the user picks from the disambiguation
// set, the selected meme ID.
type UserQuery struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint       `gorm:"index:idx_user_queries_user;not null" json:"user_id"`
	QueryText      *string    `gorm:"type:text" json:"query_text,omitempty"` // nil for random selection
	SelectedMemeID *string    `gorm:"type:text" json:"selected_meme_id,omitempty"`
	CreatedAt      time.Time  `gorm:"index:idx_user_queries_created" json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the database table name for UserQuery.
func (UserQuery) TableName() string {
	return "user_queries"
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Meme is a structured-tag catalog entry: independent emotion/intent/tone
// dimensions plus keyword tags and an optional caption.
type Meme struct {
	ID         string      `gorm:"type:text;primaryKey" json:"id"`
	StorageKey string      `gorm:"type:text" json:"storage_key"`
	Emotion    StringArray `gorm:"type:text" json:"emotion"`
	Intent     StringArray `gorm:"type:text" json:"intent"`
	Tone       StringArray `gorm:"type:text" json:"tone"`
	Keywords   StringArray `gorm:"type:text" json:"keywords"`
	Caption    string      `gorm:"type:text" json:"caption,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Meme.
func (Meme) TableName() string {
	return "memes"
}

// RepresentativeText returns the text used for semantic comparison: the
// caption if present, else joined keyword tags, else joined emotion tags.
func (m *Meme) RepresentativeText() string {
	if m.Caption != "" {
		return m.Caption
	}
	if len(m.Keywords) > 0 {
		return strings.Join(m.Keywords, " ")
	}
	return strings.Join(m.Emotion, " ")
}

// AliasMeme is an alias-tag catalog entry: a named meme resolved through
// fuzzy matching over an ordered list of alias phrases.
type AliasMeme struct {
	ID        string      `gorm:"type:text;primaryKey" json:"id"`
	Name      string      `gorm:"type:text;not null;index:idx_alias_memes_name" json:"name"`
	Aliases   StringArray `gorm:"type:text" json:"aliases"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the database table name for AliasMeme.
func (AliasMeme) TableName() string {
	return "alias_memes"
}

// ScoredCandidate pairs a meme with its computed relevance score for one
// query. Instances are created fresh per ranking call; ordering is the only
// meaningful relation between them.
type ScoredCandidate struct {
	Meme  *Meme   `json:"meme"`
	Score float64 `json:"score"`
}

// AliasMatch pairs an alias-tag meme with its best alias similarity.
type AliasMatch struct {
	Meme       *AliasMeme `json:"meme"`
	Similarity float64    `json:"similarity"`
}

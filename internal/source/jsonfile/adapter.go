package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/timmy/memematch/internal/domain"
)

const (
	SourceID   = "jsonfile"
	SourceName = "JSON catalog files"
)

// Adapter loads meme and alias catalogs from JSON files on disk, the format
// the labeling tools export.
type Adapter struct {
	memesPath   string
	aliasesPath string
}

// NewAdapter creates a new JSON file adapter. Either path may be empty when
// only one catalog is being imported.
func NewAdapter(memesPath, aliasesPath string) *Adapter {
	return &Adapter{
		memesPath:   memesPath,
		aliasesPath: aliasesPath,
	}
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// memeRecord mirrors one entry of the structured catalog JSON.
type memeRecord struct {
	ID         string   `json:"id"`
	StorageKey string   `json:"storage_key,omitempty"`
	Caption    string   `json:"caption,omitempty"`
	Emotion    []string `json:"emotion,omitempty"`
	Intent     []string `json:"intent,omitempty"`
	Tone       []string `json:"tone,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

type aliasRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// LoadMemes reads and validates the structured meme catalog.
func (a *Adapter) LoadMemes(ctx context.Context) ([]domain.Meme, error) {
	if a.memesPath == "" {
		return nil, nil
	}

	var records []memeRecord
	if err := readJSON(a.memesPath, &records); err != nil {
		return nil, err
	}

	memes := make([]domain.Meme, 0, len(records))
	for i, rec := range records {
		id := strings.ToUpper(strings.TrimSpace(rec.ID))
		if id == "" {
			return nil, fmt.Errorf("meme record %d has no id", i)
		}
		memes = append(memes, domain.Meme{
			ID:         id,
			StorageKey: rec.StorageKey,
			Caption:    strings.TrimSpace(rec.Caption),
			Emotion:    rec.Emotion,
			Intent:     rec.Intent,
			Tone:       rec.Tone,
			Keywords:   rec.Keywords,
		})
	}
	return memes, nil
}

// LoadAliases reads and validates the alias catalog.
func (a *Adapter) LoadAliases(ctx context.Context) ([]domain.AliasMeme, error) {
	if a.aliasesPath == "" {
		return nil, nil
	}

	var records []aliasRecord
	if err := readJSON(a.aliasesPath, &records); err != nil {
		return nil, err
	}

	memes := make([]domain.AliasMeme, 0, len(records))
	for i, rec := range records {
		id := strings.ToUpper(strings.TrimSpace(rec.ID))
		if id == "" {
			return nil, fmt.Errorf("alias record %d has no id", i)
		}
		aliases := make([]string, 0, len(rec.Aliases))
		for _, alias := range rec.Aliases {
			if trimmed := strings.TrimSpace(alias); trimmed != "" {
				aliases = append(aliases, trimmed)
			}
		}
		memes = append(memes, domain.AliasMeme{
			ID:      id,
			Name:    strings.TrimSpace(rec.Name),
			Aliases: aliases,
		})
	}
	return memes, nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

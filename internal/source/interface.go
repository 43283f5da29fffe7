package source

import (
	"context"

	"github.com/timmy/memematch/internal/domain"
)

// Source defines the interface for meme catalog sources. The seeding CLI
// pulls records from a source and upserts them into the database, so new
// catalog formats only need a new adapter.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// LoadMemes returns the structured meme records of the catalog.
	LoadMemes(ctx context.Context) ([]domain.Meme, error)

	// LoadAliases returns the alias records of the catalog.
	LoadAliases(ctx context.Context) ([]domain.AliasMeme, error)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/timmy/memematch/internal/config"
	"github.com/timmy/memematch/internal/logger"
	"github.com/timmy/memematch/internal/repository"
	"github.com/timmy/memematch/internal/service"
	"github.com/timmy/memematch/internal/source"
	"github.com/timmy/memematch/internal/source/jsonfile"
)

func main() {
	var (
		memesFile   = flag.String("memes", "", "path to the structured meme catalog JSON")
		aliasesFile = flag.String("aliases", "", "path to the alias catalog JSON")
		buildIndex  = flag.Bool("embed", false, "embed meme texts and upsert them into the vector index")
	)
	flag.Parse()

	if *memesFile == "" && *aliasesFile == "" {
		log.Fatal("at least one of -memes or -aliases is required")
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(logger.FromEnv())
	logger.SetDefault(appLogger)

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	catalog := repository.NewCatalogRepository(db, appLogger, cfg.Match.AliasThreshold)
	src := jsonfile.NewAdapter(*memesFile, *aliasesFile)
	ctx := context.Background()

	appLogger.WithField("source", src.GetDisplayName()).Info("Importing catalog")

	if err := importCatalog(ctx, catalog, src, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Catalog import failed")
	}

	if *buildIndex {
		if !cfg.Qdrant.Enabled {
			appLogger.Fatal("-embed requires qdrant.enabled")
		}
		count, err := buildVectorIndex(ctx, cfg, catalog, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Vector index build failed")
		}
		appLogger.WithField(logger.FieldCount, count).Info("Indexed meme embeddings")
	}
}

func importCatalog(ctx context.Context, catalog *repository.CatalogRepository, src source.Source, appLogger *logger.Logger) error {
	memes, err := src.LoadMemes(ctx)
	if err != nil {
		return err
	}
	for i := range memes {
		if err := catalog.Upsert(ctx, &memes[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", memes[i].ID, err)
		}
	}
	if len(memes) > 0 {
		appLogger.WithField(logger.FieldCount, len(memes)).Info("Imported structured memes")
	}

	aliases, err := src.LoadAliases(ctx)
	if err != nil {
		return err
	}
	for i := range aliases {
		if err := catalog.UpsertAlias(ctx, &aliases[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", aliases[i].ID, err)
		}
	}
	if len(aliases) > 0 {
		appLogger.WithField(logger.FieldCount, len(aliases)).Info("Imported alias memes")
	}

	return nil
}

// buildVectorIndex embeds every meme's representative text and stores the
// vectors in Qdrant so the API can score without live embedding calls.
func buildVectorIndex(ctx context.Context, cfg *config.Config, catalog *repository.CatalogRepository, appLogger *logger.Logger) (int, error) {
	vectors, err := repository.NewVectorRepository(&repository.VectorRepositoryConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return 0, err
	}
	defer vectors.Close()

	if err := vectors.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	embedder := service.NewJinaEmbedder(&cfg.Embedding)

	count := 0
	for _, meme := range catalog.GetAll(ctx) {
		text := meme.RepresentativeText()
		if text == "" {
			appLogger.WithField("meme_id", meme.ID).Warn("Skipping meme with no text to embed")
			continue
		}

		vector, err := embedder.Embed(ctx, text)
		if err != nil {
			return count, fmt.Errorf("embed %s: %w", meme.ID, err)
		}
		if err := vectors.Upsert(ctx, meme.ID, vector, text); err != nil {
			return count, fmt.Errorf("index %s: %w", meme.ID, err)
		}
		count++
	}
	return count, nil
}

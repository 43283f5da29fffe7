package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/memematch/internal/api"
	"github.com/timmy/memematch/internal/api/handler"
	"github.com/timmy/memematch/internal/api/middleware"
	"github.com/timmy/memematch/internal/config"
	"github.com/timmy/memematch/internal/logger"
	"github.com/timmy/memematch/internal/repository"
	"github.com/timmy/memematch/internal/service"
	"github.com/timmy/memematch/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
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

	catalogRepo := repository.NewCatalogRepository(db, appLogger, cfg.Match.AliasThreshold)
	userRepo := repository.NewUserRepository(db, cfg.RateLimit.DailyQueryLimit)

	// Qdrant is optional; without it semantic scores are computed live.
	var vectorRepo *repository.VectorRepository
	if cfg.Qdrant.Enabled {
		vectorRepo, err = repository.NewVectorRepository(&repository.VectorRepositoryConfig{
			Host:            cfg.Qdrant.Host,
			Port:            cfg.Qdrant.Port,
			Collection:      cfg.Qdrant.Collection,
			APIKey:          cfg.Qdrant.APIKey,
			UseTLS:          cfg.Qdrant.UseTLS,
			VectorDimension: cfg.Embedding.Dimensions,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize vector repository")
		}
		defer vectorRepo.Close()

		if err := vectorRepo.EnsureCollection(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure vector collection")
		}
	}

	// Object storage is optional; without it image URLs and the image
	// endpoint are disabled.
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Endpoint != "" {
		objectStorage, err = storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
	}

	embedder := service.NewJinaEmbedder(&cfg.Embedding)
	analyzer := service.NewAnalyzer()
	expander := service.NewExpander()

	var vectorIndex service.VectorIndex
	if vectorRepo != nil {
		vectorIndex = vectorRepo
	}
	scorer := service.NewScorer(expander, embedder, vectorIndex, appLogger, cfg.Match)
	selector := service.NewSelector(catalogRepo, scorer, cfg.Match.TopK, nil)

	suggestHandler := handler.NewSuggestHandler(analyzer, selector, userRepo, objectStorage)
	memeHandler := handler.NewMemeHandler(catalogRepo, vectorRepo, embedder, objectStorage)

	router := api.SetupRouter(suggestHandler, memeHandler, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

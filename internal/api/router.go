package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/memematch/internal/api/handler"
	"github.com/timmy/memematch/internal/api/middleware"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	suggestHandler *handler.SuggestHandler,
	memeHandler *handler.MemeHandler,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cors))

	healthHandler := handler.NewHealthHandler()

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Suggestion and selection
		v1.POST("/suggest", suggestHandler.Suggest)
		v1.GET("/search/alias", suggestHandler.SearchAlias)
		v1.GET("/random", suggestHandler.Random)
		v1.POST("/selections", suggestHandler.RecordSelection)

		// Catalog
		v1.GET("/memes", memeHandler.ListMemes)
		v1.GET("/memes/:id", memeHandler.GetMeme)
		v1.GET("/memes/:id/image", memeHandler.GetImage)
		v1.GET("/memes/:id/similar", memeHandler.GetSimilar)

		// Stats
		v1.GET("/stats", memeHandler.Stats)
	}

	return r
}

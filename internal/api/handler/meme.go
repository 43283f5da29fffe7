package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/memematch/internal/logger"
	"github.com/timmy/memematch/internal/repository"
	"github.com/timmy/memematch/internal/service"
	"github.com/timmy/memematch/internal/storage"
)

// MemeHandler handles catalog browsing, image delivery, and similarity
// lookups.
type MemeHandler struct {
	catalog  *repository.CatalogRepository
	vectors  *repository.VectorRepository // optional, nil disables /similar
	embedder service.EmbeddingProvider
	store    storage.ObjectStorage
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - catalog: catalog repository instance.
//   - vectors: vector repository for similarity search; may be nil.
//   - embedder: embedding provider used when a meme has no stored vector.
//   - store: object storage holding the meme images; may be nil.
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(catalog *repository.CatalogRepository, vectors *repository.VectorRepository, embedder service.EmbeddingProvider, store storage.ObjectStorage) *MemeHandler {
	return &MemeHandler{
		catalog:  catalog,
		vectors:  vectors,
		embedder: embedder,
		store:    store,
	}
}

// ListMemes handles GET /api/v1/memes.
func (h *MemeHandler) ListMemes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	memes, err := h.catalog.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list memes: " + err.Error(),
		})
		return
	}

	total, err := h.catalog.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count memes: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memes":  memes,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetMeme handles GET /api/v1/memes/:id.
func (h *MemeHandler) GetMeme(c *gin.Context) {
	id := c.Param("id")

	meme, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Meme not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load meme: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, meme)
}

// GetImage handles GET /api/v1/memes/:id/image by streaming the image from
// object storage.
func (h *MemeHandler) GetImage(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Image storage is not configured",
		})
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()

	meme, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Meme not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load meme: " + err.Error(),
		})
		return
	}

	key := imageKey(meme)
	reader, err := h.store.Download(ctx, key)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("key", key).Warn("image download failed")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Image not found",
		})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentTypeForKey(key), reader, nil)
}

// GetSimilar handles GET /api/v1/memes/:id/similar using the vector index.
func (h *MemeHandler) GetSimilar(c *gin.Context) {
	if h.vectors == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Vector index is not configured",
		})
		return
	}

	id := c.Param("id")
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "5"))
	ctx := c.Request.Context()

	meme, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Meme not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load meme: " + err.Error(),
		})
		return
	}

	vector, err := h.vectors.Retrieve(ctx, meme.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Vector lookup failed: " + err.Error(),
		})
		return
	}
	if vector == nil {
		text := meme.RepresentativeText()
		if text == "" {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Meme has no content to compare",
			})
			return
		}
		vector, err = h.embedder.Embed(ctx, text)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Embedding failed: " + err.Error(),
			})
			return
		}
	}

	// fetch one extra so the meme itself can be dropped from its own results
	hits, err := h.vectors.Search(ctx, vector, topK+1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Similarity search failed: " + err.Error(),
		})
		return
	}

	similar := make([]gin.H, 0, topK)
	for _, hit := range hits {
		if hit.MemeID == meme.ID || len(similar) >= topK {
			continue
		}
		similar = append(similar, gin.H{
			"meme_id": hit.MemeID,
			"score":   hit.Score,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"meme_id": meme.ID,
		"similar": similar,
	})
}

// Stats handles GET /api/v1/stats.
func (h *MemeHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	memes, err := h.catalog.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count memes: " + err.Error(),
		})
		return
	}

	aliases, err := h.catalog.CountAlias(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count alias memes: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memes":       memes,
		"alias_memes": aliases,
	})
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/memematch/internal/domain"
	"github.com/timmy/memematch/internal/logger"
	"github.com/timmy/memematch/internal/repository"
	"github.com/timmy/memematch/internal/service"
	"github.com/timmy/memematch/internal/storage"
)

// User-facing messages, kept in the catalog's language.
const (
	msgRateLimited = "今日查詢次數已達上限，請明天再試！"
	msgNotFound    = "找不到適合的梗圖，請再試試看！"
)

// SuggestHandler handles meme suggestion, alias search, random picks, and
// selection feedback.
type SuggestHandler struct {
	analyzer *service.Analyzer
	selector *service.Selector
	users    *repository.UserRepository
	store    storage.ObjectStorage
}

// NewSuggestHandler creates a new suggestion handler.
// Parameters:
//   - analyzer: query analyzer instance.
//   - selector: meme selector instance.
//   - users: user repository for rate limiting and query logging.
//   - store: object storage used to build image URLs; may be nil.
// Returns:
//   - *SuggestHandler: initialized handler.
func NewSuggestHandler(analyzer *service.Analyzer, selector *service.Selector, users *repository.UserRepository, store storage.ObjectStorage) *SuggestHandler {
	return &SuggestHandler{
		analyzer: analyzer,
		selector: selector,
		users:    users,
		store:    store,
	}
}

// SuggestRequest is the body of POST /api/v1/suggest.
type SuggestRequest struct {
	Text   string `json:"text" binding:"required"`
	UserID int64  `json:"user_id"`
}

type memeResponse struct {
	ID       string   `json:"id"`
	Caption  string   `json:"caption,omitempty"`
	Emotion  []string `json:"emotion,omitempty"`
	Intent   []string `json:"intent,omitempty"`
	Tone     []string `json:"tone,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

func (h *SuggestHandler) memeResponse(m *domain.Meme) memeResponse {
	resp := memeResponse{
		ID:       m.ID,
		Caption:  m.Caption,
		Emotion:  m.Emotion,
		Intent:   m.Intent,
		Tone:     m.Tone,
		Keywords: m.Keywords,
	}
	if h.store != nil {
		resp.ImageURL = h.store.GetURL(imageKey(m))
	}
	return resp
}

func imageKey(m *domain.Meme) string {
	if m.StorageKey != "" {
		return m.StorageKey
	}
	return storage.ImageKey(m.ID)
}

// Suggest handles POST /api/v1/suggest: analyze the text, rank the catalog,
// and return one of the best candidates.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	var queryID uint
	remaining := -1
	if req.UserID != 0 {
		allowed, left := h.users.CheckAndUpdateRateLimit(ctx, req.UserID)
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": msgRateLimited,
			})
			return
		}
		remaining = left

		if q, err := h.users.CreateQuery(ctx, req.UserID, &req.Text); err == nil {
			queryID = q.ID
		} else {
			logger.FromContext(ctx).WithError(err).Warn("failed to record user query")
		}
	}

	analysis := h.analyzer.Analyze(req.Text)

	pick, err := h.selector.SuggestByAnalysis(ctx, req.Text, analysis)
	if err != nil {
		if errors.Is(err, service.ErrNoMatch) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": msgNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Suggestion failed: " + err.Error(),
		})
		return
	}

	resp := gin.H{
		"meme":    h.memeResponse(pick.Meme),
		"score":   pick.Score,
		"caption": h.selector.ResponseCaption(),
		"analysis": gin.H{
			"emotion": analysis.Emotion,
			"intent":  analysis.Intent,
			"tone":    analysis.Tone,
		},
	}
	if queryID != 0 {
		resp["query_id"] = queryID
	}
	if remaining >= 0 {
		resp["remaining_queries"] = remaining
	}

	c.JSON(http.StatusOK, resp)
}

// SearchAlias handles GET /api/v1/search/alias: fuzzy-match the query
// against the alias catalog.
func (h *SuggestHandler) SearchAlias(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'q' is required",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "3"))

	sel, err := h.selector.SelectByAlias(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, service.ErrNoMatch) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": msgNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Alias search failed: " + err.Error(),
		})
		return
	}

	if sel.Direct != nil {
		c.JSON(http.StatusOK, gin.H{
			"match": sel.Direct,
		})
		return
	}

	candidates := make([]gin.H, 0, len(sel.Candidates))
	for _, m := range sel.Candidates {
		candidates = append(candidates, gin.H{
			"meme":       m.Meme,
			"similarity": m.Similarity,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"candidates": candidates,
	})
}

// Random handles GET /api/v1/random: sample memes without replacement.
func (h *SuggestHandler) Random(c *gin.Context) {
	count, _ := strconv.Atoi(c.DefaultQuery("count", "3"))

	memes, err := h.selector.SelectRandom(c.Request.Context(), count)
	if err != nil {
		if errors.Is(err, service.ErrNoMatch) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": msgNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Random selection failed: " + err.Error(),
		})
		return
	}

	results := make([]memeResponse, 0, len(memes))
	for i := range memes {
		results = append(results, h.memeResponse(&memes[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"memes": results,
		"total": len(results),
	})
}

// SelectionRequest is the body of POST /api/v1/selections.
type SelectionRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	MemeID  string `json:"meme_id" binding:"required"`
	QueryID uint   `json:"query_id"`
}

// RecordSelection handles POST /api/v1/selections: link the meme a user
// picked back to their logged query.
func (h *SuggestHandler) RecordSelection(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.users.RecordSelection(c.Request.Context(), req.UserID, req.MemeID, req.QueryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record selection: " + err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

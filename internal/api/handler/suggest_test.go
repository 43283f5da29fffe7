package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/timmy/memematch/internal/config"
	"github.com/timmy/memematch/internal/domain"
	"github.com/timmy/memematch/internal/logger"
	"github.com/timmy/memematch/internal/repository"
	"github.com/timmy/memematch/internal/service"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func setupSuggestRouter(t *testing.T, dailyLimit int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Meme{}, &domain.AliasMeme{}, &domain.User{}, &domain.UserQuery{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	log := logger.New(&logger.Config{Level: "error", Format: "json", ServiceName: "test"})
	catalog := repository.NewCatalogRepository(db, log, 0)
	users := repository.NewUserRepository(db, dailyLimit)

	ctx := context.Background()
	seed := []domain.Meme{
		{ID: "SS0001", Caption: "上班好累", Emotion: domain.StringArray{"tired"}},
		{ID: "SS0002", Caption: "開心跳舞", Emotion: domain.StringArray{"happy"}},
	}
	for i := range seed {
		if err := catalog.Upsert(ctx, &seed[i]); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	if err := catalog.UpsertAlias(ctx, &domain.AliasMeme{
		ID: "A001", Name: "黑人問號", Aliases: domain.StringArray{"黑人問號", "問號"},
	}); err != nil {
		t.Fatalf("failed to seed alias: %v", err)
	}

	weights := config.MatchConfig{
		EmotionWeight:  0.3,
		IntentWeight:   0.3,
		KeywordWeight:  0.2,
		SemanticWeight: 0.2,
		TopK:           3,
	}
	scorer := service.NewScorer(service.NewExpander(), stubEmbedder{}, nil, log, weights)
	selector := service.NewSelector(catalog, scorer, 3, rand.New(rand.NewSource(1)))

	h := NewSuggestHandler(service.NewAnalyzer(), selector, users, nil)

	r := gin.New()
	r.POST("/api/v1/suggest", h.Suggest)
	r.GET("/api/v1/search/alias", h.SearchAlias)
	r.GET("/api/v1/random", h.Random)
	r.POST("/api/v1/selections", h.RecordSelection)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSuggestHandler_Suggest(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	w := postJSON(t, r, "/api/v1/suggest", gin.H{"text": "今天好累"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Meme struct {
			ID string `json:"id"`
		} `json:"meme"`
		Score   float64 `json:"score"`
		Caption string  `json:"caption"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Meme.ID == "" {
		t.Error("expected a meme in the response")
	}
	if resp.Score < 0 || resp.Score > 1 {
		t.Errorf("score %v outside [0,1]", resp.Score)
	}
	if resp.Caption == "" {
		t.Error("expected a caption")
	}
}

func TestSuggestHandler_Suggest_MissingText(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	w := postJSON(t, r, "/api/v1/suggest", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSuggestHandler_Suggest_RateLimited(t *testing.T) {
	r := setupSuggestRouter(t, 1)

	w := postJSON(t, r, "/api/v1/suggest", gin.H{"text": "今天好累", "user_id": 42})
	if w.Code != http.StatusOK {
		t.Fatalf("first query: status = %d", w.Code)
	}

	w = postJSON(t, r, "/api/v1/suggest", gin.H{"text": "還是好累", "user_id": 42})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second query: status = %d, want 429", w.Code)
	}
}

func TestSuggestHandler_SearchAlias(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/alias?q=黑人問號", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Match *domain.AliasMeme `json:"match"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Match == nil || resp.Match.ID != "A001" {
		t.Errorf("expected direct match A001, got %+v", resp.Match)
	}
}

func TestSuggestHandler_SearchAlias_NoMatch(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/alias?q=nothinglikethis", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSuggestHandler_SearchAlias_MissingQuery(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/alias", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSuggestHandler_Random(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/random?count=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Memes []json.RawMessage `json:"memes"`
		Total int               `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Total != 2 || len(resp.Memes) != 2 {
		t.Errorf("expected 2 memes, got total=%d len=%d", resp.Total, len(resp.Memes))
	}
}

func TestSuggestHandler_RecordSelection(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	// log a query first so the selection has something to attach to
	w := postJSON(t, r, "/api/v1/suggest", gin.H{"text": "今天好累", "user_id": 42})
	if w.Code != http.StatusOK {
		t.Fatalf("suggest: status = %d", w.Code)
	}

	w = postJSON(t, r, "/api/v1/selections", gin.H{"user_id": 42, "meme_id": "SS0001"})
	if w.Code != http.StatusNoContent {
		t.Errorf("selection: status = %d, want 204, body = %s", w.Code, w.Body.String())
	}
}

func TestSuggestHandler_RecordSelection_UnknownUser(t *testing.T) {
	r := setupSuggestRouter(t, 0)

	w := postJSON(t, r, "/api/v1/selections", gin.H{"user_id": 999, "meme_id": "SS0001"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/collector"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/vector"
)

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Provider = config.ProviderMock
	cfg.Embedding.Dimensions = 8
	cfg.Storage.ArtifactPath = filepath.Join(dir, "index.idx")
	cfg.Storage.EmbeddingCachePath = ""

	emb := embedding.NewMockEmbedder(8)
	texts := []string{"the eiffel tower is in paris", "the colosseum is in rome"}
	a := &vector.Artifact{EncoderID: emb.ID(), Texts: texts}
	for _, text := range texts {
		v, err := emb.Embed(t.Context(), text)
		if err != nil {
			t.Fatal(err)
		}
		a.Vectors = append(a.Vectors, v)
	}
	if err := vector.WriteArtifact(cfg.Storage.ArtifactPath, a); err != nil {
		t.Fatal(err)
	}
	handle := index.NewHandle(cfg.Storage.ArtifactPath, emb)
	if err := handle.Reload(); err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	engine := search.NewEngine(
		search.NewLocalSearcher(handle, emb, logger),
		search.NewLiveRanker(emb, logger),
		collector.Static{"paris is the capital of france"},
		&cfg.Search,
		time.Second,
		logger,
	)
	return NewServer(engine, handle, cfg, logger), cfg
}

func TestHandleSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(models.SearchQuery{Query: "the eiffel tower is in paris", Limit: 2})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Total != 3 {
		t.Errorf("total: got %d, want 3", resp.Total)
	}
	top := resp.Results[0]
	if top.Text != "the eiffel tower is in paris" || top.Source != models.SourceOffline {
		t.Errorf("unexpected top result: %+v", top)
	}
	if top.OriginIndex == nil || *top.OriginIndex != 0 {
		t.Errorf("expected origin index 0, got %v", top.OriginIndex)
	}
	if resp.Results[0].Score < resp.Results[1].Score {
		t.Error("results are not sorted by score")
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"   "}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["error"] != "invalid request body" {
		t.Errorf("error: got %q", out["error"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv, cfg := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Index          index.Status           `json:"index"`
		Config         map[string]interface{} `json:"config"`
		DiskUsageBytes int64                  `json:"disk_usage_bytes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Index.Loaded || out.Index.Passages != 2 || out.Index.Dimensions != 8 {
		t.Errorf("unexpected index status: %+v", out.Index)
	}
	if out.Index.Path != cfg.Storage.ArtifactPath {
		t.Errorf("path: got %q", out.Index.Path)
	}
	if out.DiskUsageBytes <= 0 || out.DiskUsageBytes != out.Index.FileBytes {
		t.Errorf("disk usage: got %d, artifact %d", out.DiskUsageBytes, out.Index.FileBytes)
	}
	if out.Config["embedding_provider"] != config.ProviderMock {
		t.Errorf("provider: got %v", out.Config["embedding_provider"])
	}
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type: got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

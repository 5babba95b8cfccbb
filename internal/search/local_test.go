package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

func TestLocalSearcher_KnownFixture(t *testing.T) {
	emb, a := fixture()
	s := NewLocalSearcher(staticSource{a}, emb, nil)

	got := s.Search(t.Context(), "q", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Text)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, "gamma", got[1].Text)
	assert.InDelta(t, 0.6, got[1].Score, 1e-6)
	for _, r := range got {
		assert.Equal(t, models.SourceOffline, r.Source)
		require.NotNil(t, r.OriginIndex)
		assert.Equal(t, r.Text, a.Texts[*r.OriginIndex])
	}
}

func TestLocalSearcher_KLargerThanCorpus(t *testing.T) {
	emb, a := fixture()
	got := NewLocalSearcher(staticSource{a}, emb, nil).Search(t.Context(), "q", 10)
	require.Len(t, got, 3)
	assert.Equal(t, 1, *got[2].OriginIndex)
}

func TestLocalSearcher_TiesKeepIndexOrder(t *testing.T) {
	emb, _ := fixture()
	a := &vector.Artifact{
		EncoderID: "fixed",
		Texts:     []string{"first", "second", "third"},
		Vectors:   [][]float32{{0, 1, 0}, {1, 0, 0}, {1, 0, 0}},
	}
	got := NewLocalSearcher(staticSource{a}, emb, nil).Search(t.Context(), "q", 2)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"second", "third"}, []string{got[0].Text, got[1].Text})
}

func TestLocalSearcher_FailuresYieldEmpty(t *testing.T) {
	emb, a := fixture()
	emb.vectors["nan query"] = []float32{float32(math.NaN()), 0, 0}

	tests := []struct {
		name   string
		source ArtifactSource
		query  string
		k      int
	}{
		{"no artifact", staticSource{nil}, "q", 3},
		{"k below one", staticSource{a}, "q", 0},
		{"unknown text fails encoding", staticSource{a}, "unknown", 3},
		{"dimension mismatch", staticSource{&vector.Artifact{
			EncoderID: "fixed", Texts: []string{"x"}, Vectors: [][]float32{{1, 0}},
		}}, "q", 3},
		{"empty corpus", staticSource{&vector.Artifact{EncoderID: "fixed"}}, "q", 3},
		{"non-finite query vector", staticSource{a}, "nan query", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewLocalSearcher(tt.source, emb, nil).Search(t.Context(), tt.query, tt.k)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

func TestLiveRanker_EmptyInputSkipsEncoder(t *testing.T) {
	emb, _ := fixture()
	got := NewLiveRanker(emb, nil).Rank(t.Context(), "q", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, emb.calls.Load())
}

func TestLiveRanker_ScoresInInputOrder(t *testing.T) {
	emb, _ := fixture()
	snippets := []string{"live far", "live close", "live partial"}

	got := NewLiveRanker(emb, nil).Rank(t.Context(), "q", snippets)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, snippets[i], r.Text)
		assert.Equal(t, models.SourceLive, r.Source)
		assert.Nil(t, r.OriginIndex)
	}
	assert.InDelta(t, 0.0, got[0].Score, 1e-6)
	assert.InDelta(t, 0.8, got[1].Score, 1e-6)
	// {3,0,4} is not unit length; cosine still yields 0.6.
	assert.InDelta(t, 0.6, got[2].Score, 1e-6)
}

func TestLiveRanker_EncoderFailure(t *testing.T) {
	emb, _ := fixture()
	emb.fail = errEncoderDown
	got := NewLiveRanker(emb, nil).Rank(t.Context(), "q", []string{"live close"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLiveRanker_NonFiniteVectorsYieldEmpty(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		vec     []float32
	}{
		{"nan snippet", "live nan", []float32{float32(math.NaN()), 0, 0}},
		{"inf snippet", "live inf", []float32{0, float32(math.Inf(1)), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, _ := fixture()
			emb.vectors[tt.snippet] = tt.vec
			got := NewLiveRanker(emb, nil).Rank(t.Context(), "q", []string{"live close", tt.snippet})
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

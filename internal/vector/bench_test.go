package vector

import (
	"context"
	"io"
	"testing"
)

func benchArtifact(n, dim int) *Artifact {
	a := &Artifact{EncoderID: "bench", Texts: make([]string, n), Vectors: make([][]float32, n)}
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		v[0] = float32(i) / float32(n)
		v[i%dim] += 0.5
		a.Vectors[i] = v
	}
	return a
}

func BenchmarkFlatIndexSearch(b *testing.B) {
	idx := NewFlatIndex(benchArtifact(20000, 384))
	ctx := context.Background()
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, query, 5)
	}
}

func BenchmarkEncodeArtifact(b *testing.B) {
	a := benchArtifact(2000, 384)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := EncodeArtifact(io.Discard, a); err != nil {
			b.Fatal(err)
		}
	}
}

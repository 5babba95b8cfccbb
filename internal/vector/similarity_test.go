package vector

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []float32
		inner float64
		cos   float64
	}{
		{"identical unit", []float32{1, 0}, []float32{1, 0}, 1, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, 0},
		{"unnormalized", []float32{3, 4}, []float32{6, 8}, 50, 1},
		{"opposite", []float32{1, 0}, []float32{-2, 0}, -2, -1},
		{"dimension mismatch", []float32{1, 0}, []float32{1}, 0, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InnerProduct(tt.a, tt.b); math.Abs(got-tt.inner) > 1e-9 {
				t.Errorf("InnerProduct = %v, want %v", got, tt.inner)
			}
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.cos) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.cos)
			}
		})
	}
}

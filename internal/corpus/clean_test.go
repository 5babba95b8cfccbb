package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"triple duplicate collapses", []string{"same", "same", "same"}, []string{"same"}},
		{"keeps first occurrence order", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"drops empty and blank", []string{"", "  ", "x", "\n"}, []string{"x"}},
		{"trims before comparing", []string{" x", "x ", "x"}, []string{"x"}},
		{"nfc equivalent forms dedupe", []string{"caf\u00e9", "cafe\u0301"}, []string{"caf\u00e9"}},
		{"nil input", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

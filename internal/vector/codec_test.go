package vector

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveRowArtifact() *Artifact {
	texts := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(i), 0.5, -float32(i) / 10, 1e-7}
	}
	return &Artifact{
		EncoderID: "mock/4",
		Texts:     texts,
		Vectors:   vectors,
		Metadata: Metadata{
			Source:     "squad_train.csv",
			CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			Dimensions: [2]int{5, 4},
			BuildID:    "b-1",
			Normalized: false,
		},
	}
}

// rawArtifact hand-assembles an artifact stream from a header map.
func rawArtifact(t *testing.T, header map[string]any, floats []float32) []byte {
	t.Helper()
	body, err := json.Marshal(header)
	require.NoError(t, err)
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, _ = zw.Write([]byte(ArtifactMagic))
	require.NoError(t, binary.Write(zw, binary.LittleEndian, uint32(len(body))))
	_, _ = zw.Write(body)
	_, _ = zw.Write(EncodeFloat32s(floats))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestWriteReadArtifact_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "context_embeddings.idx")
	want := fiveRowArtifact()

	require.NoError(t, WriteArtifact(path, want))
	got, err := ReadArtifact(path)
	require.NoError(t, err)

	assert.Equal(t, want.EncoderID, got.EncoderID)
	assert.Equal(t, want.Texts, got.Texts)
	assert.Equal(t, want.Vectors, got.Vectors)
	assert.Equal(t, want.Metadata, got.Metadata)
}

func TestWriteArtifact_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.idx")
	require.NoError(t, WriteArtifact(path, fiveRowArtifact()))
	require.NoError(t, WriteArtifact(path, fiveRowArtifact()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.idx", entries[0].Name())
}

func TestWriteArtifact_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.idx")
	bad := fiveRowArtifact()
	bad.Vectors = bad.Vectors[:4]

	err := WriteArtifact(path, bad)
	require.ErrorIs(t, err, ErrInvalidArtifact)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "nothing should be written")
}

func TestReadArtifact_Missing(t *testing.T) {
	_, err := ReadArtifact(filepath.Join(t.TempDir(), "nope.idx"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDecodeArtifact_Corrupt(t *testing.T) {
	texts := []string{"a", "b"}
	tests := []struct {
		name string
		data []byte
	}{
		{"not zstd", []byte("definitely not an index")},
		{"missing vectors field", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": texts}, nil)},
		{"missing texts field", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "vectors": map[string]int{"count": 0, "dim": 2}}, nil)},
		{"missing encoder id", rawArtifact(t, map[string]any{"texts": texts, "vectors": map[string]int{"count": 2, "dim": 2}}, []float32{1, 0, 0, 1})},
		{"count mismatch", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": texts, "vectors": map[string]int{"count": 1, "dim": 2}}, []float32{1, 0})},
		{"truncated vectors", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": texts, "vectors": map[string]int{"count": 2, "dim": 2}}, []float32{1, 0, 0})},
		{"trailing data", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": texts, "vectors": map[string]int{"count": 2, "dim": 2}}, []float32{1, 0, 0, 1, 9})},
		{"huge dimension", rawArtifact(t, map[string]any{"encoder_id": "mock/4", "texts": []string{"a"}, "vectors": map[string]int{"count": 1, "dim": 1 << 50}}, nil)},
		{"dimension above max", rawArtifact(t, map[string]any{"encoder_id": "mock/4", "texts": []string{"a"}, "vectors": map[string]int{"count": 1, "dim": MaxDim + 1}}, nil)},
		{"negative count", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": []string{}, "vectors": map[string]int{"count": -1, "dim": 2}}, nil)},
		{"nan component", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": texts, "vectors": map[string]int{"count": 2, "dim": 2}}, []float32{1, 0, float32(math.NaN()), 1})},
		{"zero dimension", rawArtifact(t, map[string]any{"encoder_id": "mock/2", "texts": texts, "vectors": map[string]int{"count": 2, "dim": 0}}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeArtifact(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestDecodeArtifact_BadMagic(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, _ = zw.Write([]byte("PICKLE\x80\x04\x95...."))
	require.NoError(t, zw.Close())

	_, err = DecodeArtifact(&buf)
	assert.ErrorIs(t, err, ErrInvalidArtifact)
}

func TestArtifact_Validate(t *testing.T) {
	ok := fiveRowArtifact()
	require.NoError(t, ok.Validate())
	assert.Equal(t, 5, ok.Len())
	assert.Equal(t, 4, ok.Dim())

	ragged := fiveRowArtifact()
	ragged.Vectors[3] = []float32{1, 2}
	assert.ErrorIs(t, ragged.Validate(), ErrInvalidArtifact)

	wrongShape := fiveRowArtifact()
	wrongShape.Metadata.Dimensions = [2]int{5, 3}
	assert.ErrorIs(t, wrongShape.Validate(), ErrInvalidArtifact)

	nan := fiveRowArtifact()
	nan.Vectors[2][1] = float32(math.NaN())
	assert.ErrorIs(t, nan.Validate(), ErrInvalidArtifact)

	inf := fiveRowArtifact()
	inf.Vectors[0][3] = float32(math.Inf(-1))
	assert.ErrorIs(t, inf.Validate(), ErrInvalidArtifact)
}

func TestFloat32Blob(t *testing.T) {
	in := []float32{1.5, -2, 0}
	out, err := DecodeFloat32s(EncodeFloat32s(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeFloat32s([]byte{1, 2, 3})
	assert.Error(t, err)
}

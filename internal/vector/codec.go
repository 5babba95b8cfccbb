package vector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
)

// ArtifactMagic opens every decompressed artifact stream.
const ArtifactMagic = "KOTAEIDX1\n"

// maxHeaderBytes bounds the JSON header so a corrupt length cannot force a huge allocation.
const maxHeaderBytes = 1 << 30

// MaxDim is the largest vector dimension an artifact may declare.
const MaxDim = 1 << 16

// ArtifactHeader is the JSON document that follows the magic and length prefix.
// Pointer fields distinguish "absent" from "empty" when decoding.
type ArtifactHeader struct {
	EncoderID string       `json:"encoder_id"`
	Texts     *[]string    `json:"texts"`
	Metadata  Metadata     `json:"metadata"`
	Vectors   *VectorShape `json:"vectors"`
}

// VectorShape describes the float32 block that follows the header.
type VectorShape struct {
	Count int `json:"count"`
	Dim   int `json:"dim"`
}

// WriteArtifact validates a and writes it to path through a temp file renamed over the target,
// so readers only ever see the previous or the new complete artifact.
func WriteArtifact(path string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	pending, err := renameio.TempFile(dir, path)
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer pending.Cleanup()
	if err := pending.Chmod(0644); err != nil {
		return fmt.Errorf("chmod temp artifact: %w", err)
	}

	bw := bufio.NewWriter(pending)
	if err := EncodeArtifact(bw, a); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// EncodeArtifact writes the zstd-compressed artifact stream to w.
func EncodeArtifact(w io.Writer, a *Artifact) error {
	texts := a.Texts
	if texts == nil {
		texts = []string{}
	}
	header := ArtifactHeader{
		EncoderID: a.EncoderID,
		Texts:     &texts,
		Metadata:  a.Metadata,
		Vectors:   &VectorShape{Count: len(a.Vectors), Dim: a.Dim()},
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := writeHeader(zw, &header); err != nil {
		zw.Close()
		return err
	}
	buf := make([]byte, 4*a.Dim())
	for _, v := range a.Vectors {
		putFloat32s(buf, v)
		if _, err := zw.Write(buf); err != nil {
			zw.Close()
			return fmt.Errorf("write vectors: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zstd stream: %w", err)
	}
	return nil
}

func writeHeader(w io.Writer, header *ArtifactHeader) error {
	body, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal artifact header: %w", err)
	}
	if _, err := io.WriteString(w, ArtifactMagic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(body))); err != nil {
		return fmt.Errorf("write header length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// ReadArtifact reads and validates the artifact at path. A missing file returns an error
// satisfying errors.Is(err, fs.ErrNotExist); every other failure wraps ErrInvalidArtifact.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeArtifact(bufio.NewReader(f))
}

// DecodeArtifact reads a zstd-compressed artifact stream from r.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	defer zr.Close()

	magic := make([]byte, len(ArtifactMagic))
	if _, err := io.ReadFull(zr, magic); err != nil {
		return nil, fmt.Errorf("%w: read magic: %v", ErrInvalidArtifact, err)
	}
	if string(magic) != ArtifactMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidArtifact)
	}
	var headerLen uint32
	if err := binary.Read(zr, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("%w: read header length: %v", ErrInvalidArtifact, err)
	}
	if headerLen > maxHeaderBytes {
		return nil, fmt.Errorf("%w: header length %d too large", ErrInvalidArtifact, headerLen)
	}
	body := make([]byte, headerLen)
	if _, err := io.ReadFull(zr, body); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidArtifact, err)
	}
	var header ArtifactHeader
	if err := json.Unmarshal(body, &header); err != nil {
		return nil, fmt.Errorf("%w: decode header: %v", ErrInvalidArtifact, err)
	}
	switch {
	case header.EncoderID == "":
		return nil, fmt.Errorf("%w: missing field encoder_id", ErrInvalidArtifact)
	case header.Texts == nil:
		return nil, fmt.Errorf("%w: missing field texts", ErrInvalidArtifact)
	case header.Vectors == nil:
		return nil, fmt.Errorf("%w: missing field vectors", ErrInvalidArtifact)
	}
	shape := *header.Vectors
	if shape.Count != len(*header.Texts) {
		return nil, fmt.Errorf("%w: %d texts but %d vectors", ErrInvalidArtifact, len(*header.Texts), shape.Count)
	}
	if shape.Count < 0 || shape.Dim < 0 || shape.Dim > MaxDim || (shape.Count > 0 && shape.Dim == 0) {
		return nil, fmt.Errorf("%w: bad vector shape [%d %d]", ErrInvalidArtifact, shape.Count, shape.Dim)
	}
	if shape.Count > 0 && shape.Count > math.MaxInt/(4*shape.Dim) {
		return nil, fmt.Errorf("%w: vector block [%d %d] overflows", ErrInvalidArtifact, shape.Count, shape.Dim)
	}

	vectors := make([][]float32, shape.Count)
	buf := make([]byte, 4*shape.Dim)
	for i := range vectors {
		if _, err := io.ReadFull(zr, buf); err != nil {
			return nil, fmt.Errorf("%w: read vector %d: %v", ErrInvalidArtifact, i, err)
		}
		vectors[i] = getFloat32s(buf)
	}
	if n, _ := zr.Read(make([]byte, 1)); n != 0 {
		return nil, fmt.Errorf("%w: trailing data after vectors", ErrInvalidArtifact)
	}

	a := &Artifact{
		EncoderID: header.EncoderID,
		Texts:     *header.Texts,
		Vectors:   vectors,
		Metadata:  header.Metadata,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// EncodeFloat32s returns v as little-endian IEEE 754 bytes.
func EncodeFloat32s(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	putFloat32s(buf, v)
	return buf
}

// DecodeFloat32s is the inverse of EncodeFloat32s.
func DecodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("float32 blob length is not a multiple of 4")
	}
	return getFloat32s(b), nil
}

func putFloat32s(buf []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

func getFloat32s(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

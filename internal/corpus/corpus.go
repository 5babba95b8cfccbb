// Package corpus locates and reads the passage sources an offline index is built from:
// flat CSV or XLSX tables with a text column, and SQuAD-style JSON.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Format is a corpus file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatSQuAD Format = "json"
)

// lookupOrder is the order Locate probes extensions in.
var lookupOrder = []Format{FormatCSV, FormatXLSX, FormatSQuAD}

// Source is a corpus file and its format.
type Source struct {
	Path   string
	Format Format
}

// Name returns the file base name, recorded as the artifact's source.
func (s Source) Name() string {
	return filepath.Base(s.Path)
}

// SourceFromPath infers the format of an explicit corpus path from its extension.
func SourceFromPath(path string) (Source, error) {
	ext := Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	for _, f := range lookupOrder {
		if ext == f {
			return Source{Path: path, Format: f}, nil
		}
	}
	return Source{}, fmt.Errorf("unsupported corpus format %q (want .csv, .xlsx or .json)", filepath.Ext(path))
}

// Locate finds <name>.csv, <name>.xlsx or <name>.json in dir, in that order.
func Locate(dir, name string) (Source, error) {
	tried := make([]string, 0, len(lookupOrder))
	for _, f := range lookupOrder {
		path := filepath.Join(dir, name+"."+string(f))
		tried = append(tried, path)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return Source{Path: path, Format: f}, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return Source{}, &SourceNotFoundError{Dir: dir, Tried: tried}
}

package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/xuri/excelize/v2"
)

// squadField is the path reported when a SQuAD document has no contexts.
const squadField = "data[].paragraphs[].context"

// Load reads the raw passages of src. For tabular formats the header row must contain column.
// Rows are returned in file order, uncleaned. A missing file returns a SourceNotFoundError.
func Load(src Source, column string) ([]string, error) {
	if _, err := os.Stat(src.Path); errors.Is(err, fs.ErrNotExist) {
		return nil, &SourceNotFoundError{Dir: filepath.Dir(src.Path), Tried: []string{src.Path}}
	}
	switch src.Format {
	case FormatCSV:
		return loadCSV(src.Path, column)
	case FormatXLSX:
		return loadXLSX(src.Path, column)
	case FormatSQuAD:
		return loadSQuAD(src.Path)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", src.Format)
	}
}

func loadCSV(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Path: path, Column: column}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col, err := columnIndex(path, header, column)
	if err != nil {
		return nil, err
	}

	var texts []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if col < len(rec) {
			texts = append(texts, rec[col])
		}
	}
	return texts, nil
}

func loadXLSX(path, column string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &SchemaError{Path: path, Column: column}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Path: path, Column: column}
	}
	col, err := columnIndex(path, rows[0], column)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// GetRows drops trailing empty cells.
		if col < len(row) {
			texts = append(texts, row[col])
		}
	}
	return texts, nil
}

type squadDocument struct {
	Data []struct {
		Title      string `json:"title"`
		Paragraphs []struct {
			Context *string `json:"context"`
		} `json:"paragraphs"`
	} `json:"data"`
}

func loadSQuAD(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	var doc squadDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, path, err)
	}
	var texts []string
	for _, article := range doc.Data {
		for _, p := range article.Paragraphs {
			if p.Context != nil {
				texts = append(texts, *p.Context)
			}
		}
	}
	if texts == nil {
		return nil, &SchemaError{Path: path, Column: squadField}
	}
	return texts, nil
}

func columnIndex(path string, header []string, column string) (int, error) {
	found := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == column {
			return i, nil
		}
		found[i] = h
	}
	return -1, &SchemaError{Path: path, Column: column, Found: found}
}

// WriteCSV writes texts as a single-column CSV with the given header, replacing path atomically.
func WriteCSV(path, column string, texts []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{column}); err != nil {
		return err
	}
	for _, t := range texts {
		if err := w.Write([]string{t}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

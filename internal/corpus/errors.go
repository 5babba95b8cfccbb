package corpus

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceNotFound means no corpus file exists in any supported format.
	ErrSourceNotFound = errors.New("corpus source not found")
	// ErrSchema means the corpus exists but lacks the expected text field.
	ErrSchema = errors.New("corpus schema invalid")
)

// SourceNotFoundError lists every path Locate probed.
type SourceNotFoundError struct {
	Dir   string
	Tried []string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("no corpus found in %s; place one of: %s", e.Dir, strings.Join(e.Tried, ", "))
}

func (e *SourceNotFoundError) Unwrap() error { return ErrSourceNotFound }

// SchemaError reports the missing column or field and what was found instead.
type SchemaError struct {
	Path   string
	Column string
	Found  []string
}

func (e *SchemaError) Error() string {
	if len(e.Found) == 0 {
		return fmt.Sprintf("%s: missing %q", e.Path, e.Column)
	}
	return fmt.Sprintf("%s: missing %q (found %s)", e.Path, e.Column, strings.Join(e.Found, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

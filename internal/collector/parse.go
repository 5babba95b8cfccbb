package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minParagraphRunes skips navigation crumbs and captions when scraping HTML pages.
const minParagraphRunes = 40

type wikipediaSearch struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// parseWikipedia reads a MediaWiki list=search response and returns the snippets as plain text.
func parseWikipedia(r io.Reader) ([]string, error) {
	var resp wikipediaSearch
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode wikipedia response: %w", err)
	}
	out := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		if text := stripTags(hit.Snippet); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// stripTags returns the text content of an HTML fragment with entities decoded.
func stripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// extractParagraphs returns the text of each <p> element at least minRunes long, in document
// order. Script and style content is ignored.
func extractParagraphs(r io.Reader, minRunes int) []string {
	z := html.NewTokenizer(r)
	var (
		out   []string
		b     strings.Builder
		depth int
		skip  int
	)
	flush := func() {
		text := strings.Join(strings.Fields(b.String()), " ")
		b.Reset()
		if utf8.RuneCountInString(text) >= minRunes {
			out = append(out, text)
		}
	}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if depth > 0 {
				flush()
			}
			return out
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.P:
				if tt == html.StartTagToken {
					if depth > 0 {
						flush()
					}
					depth = 1
				} else if depth > 0 {
					flush()
					depth = 0
				}
			case atom.Script, atom.Style, atom.Noscript:
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			case atom.Br:
				b.WriteByte(' ')
			}
		case html.TextToken:
			if depth > 0 && skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

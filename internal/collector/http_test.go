package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

const wikipediaBody = `{"batchcomplete":"","query":{"search":[
 {"title":"Eiffel Tower","snippet":"The <span class=\"searchmatch\">Eiffel</span> Tower is in Paris &amp; France"},
 {"title":"Gustave Eiffel","snippet":"Gustave <span class=\"searchmatch\">Eiffel</span> was an engineer"},
 {"title":"Empty","snippet":"   "}
]}}`

const paragraphPage = `<html><head><style>p { color: red }</style><script>var p = "<p>no</p>";</script></head>
<body><nav><p>Home</p></nav>
<p>The Eiffel Tower was completed in 1889 as the entrance arch to the World's Fair.</p>
<div><p>It is named after the engineer <b>Gustave Eiffel</b>, whose company designed the tower.</p></div>
</body></html>`

func source(name, url, format string) config.CollectorSource {
	return config.CollectorSource{Name: name, URL: url, Format: format}
}

func TestHTTPCollector_Wikipedia(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("srsearch")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(wikipediaBody))
	}))
	defer srv.Close()

	c := NewHTTPCollector(config.CollectorConfig{
		UserAgent: "kotae-test",
		Sources:   []config.CollectorSource{source("wiki", srv.URL+"/w/api.php?srsearch={query}", config.SourceFormatWikipedia)},
	}, WithHTTPClient(srv.Client()))

	snippets, err := c.Collect(t.Context(), "eiffel tower & co")
	require.NoError(t, err)
	assert.Equal(t, "eiffel tower & co", gotQuery)
	assert.Equal(t, "kotae-test", gotUA)
	assert.Equal(t, []string{
		"The Eiffel Tower is in Paris & France",
		"Gustave Eiffel was an engineer",
	}, snippets)
}

func TestHTTPCollector_HTMLParagraphs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(paragraphPage))
	}))
	defer srv.Close()

	c := NewHTTPCollector(config.CollectorConfig{
		Sources: []config.CollectorSource{source("page", srv.URL+"/?q={query}", config.SourceFormatHTML)},
	}, WithHTTPClient(srv.Client()))

	snippets, err := c.Collect(t.Context(), "eiffel")
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.True(t, strings.HasPrefix(snippets[0], "The Eiffel Tower was completed"))
	assert.Equal(t, "It is named after the engineer Gustave Eiffel, whose company designed the tower.", snippets[1])
}

func TestHTTPCollector_OneSourceFails(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(wikipediaBody))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	c := NewHTTPCollector(config.CollectorConfig{
		Sources: []config.CollectorSource{
			source("bad", bad.URL+"/?q={query}", config.SourceFormatWikipedia),
			source("good", good.URL+"/?q={query}", config.SourceFormatWikipedia),
		},
	}, WithLogger(zap.NewNop()))

	snippets, err := c.Collect(t.Context(), "q")
	require.NoError(t, err)
	assert.Len(t, snippets, 2)
}

func TestHTTPCollector_AllSourcesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer garbage.Close()

	c := NewHTTPCollector(config.CollectorConfig{
		Sources: []config.CollectorSource{
			source("bad", bad.URL+"/?q={query}", config.SourceFormatWikipedia),
			source("garbage", garbage.URL+"/?q={query}", config.SourceFormatWikipedia),
		},
	})

	_, err := c.Collect(t.Context(), "q")
	assert.ErrorIs(t, err, ErrCollectorFailed)
}

func TestHTTPCollector_DedupAndCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(wikipediaBody))
	}))
	defer srv.Close()

	src := source("wiki", srv.URL+"/?q={query}", config.SourceFormatWikipedia)
	c := NewHTTPCollector(config.CollectorConfig{
		MaxSnippets: 3,
		Sources:     []config.CollectorSource{src, src},
	})
	snippets, err := c.Collect(t.Context(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The Eiffel Tower is in Paris & France",
		"Gustave Eiffel was an engineer",
	}, snippets)

	c.maxSnippets = 1
	snippets, err = c.Collect(t.Context(), "q")
	require.NoError(t, err)
	assert.Len(t, snippets, 1)
}

func TestHTTPCollector_NoSources(t *testing.T) {
	snippets, err := NewHTTPCollector(config.CollectorConfig{}).Collect(t.Context(), "q")
	require.NoError(t, err)
	assert.NotNil(t, snippets)
	assert.Empty(t, snippets)
}

func TestHTTPCollector_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(wikipediaBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	c := NewHTTPCollector(config.CollectorConfig{
		Sources: []config.CollectorSource{source("wiki", srv.URL+"/?q={query}", config.SourceFormatWikipedia)},
	})
	_, err := c.Collect(ctx, "q")
	assert.ErrorIs(t, err, ErrCollectorFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractParagraphs_MinLength(t *testing.T) {
	page := `<p>short</p><p>` + strings.Repeat("word ", 10) + `</p>`
	got := extractParagraphs(strings.NewReader(page), minParagraphRunes)
	require.Len(t, got, 1)
	assert.Equal(t, strings.TrimSpace(strings.Repeat("word ", 10)), got[0])
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a b & c", stripTags(`a <span class="x">b</span>  &amp; c`))
	assert.Equal(t, "", stripTags(""))
}

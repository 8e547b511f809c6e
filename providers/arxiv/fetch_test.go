package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"researchpilot/config"
	"researchpilot/providers"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All You Need</title>
    <summary>  The dominant sequence transduction models...  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf" title="pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <title>Single Author Paper</title>
    <summary>Abstract text.</summary>
    <published>2023-01-01T00:00:00Z</published>
    <author><name>Jane Doe</name></author>
  </entry>
</feed>`

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		ArxivBaseURL:        baseURL,
		ArxivMaxResults:     5,
		ArxivTimeoutSeconds: 5,
	}
}

func TestSearchParsesAtomFeed(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), zap.NewNop())
	feed, err := f.Search(context.Background(), "transformers", 5)

	require.NoError(t, err)
	assert.Equal(t, "all:transformers", gotQuery)
	assert.Equal(t, "arXiv", feed.Source)
	require.Len(t, feed.Entries, 2)

	first := feed.Entries[0]
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", first.ID)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, "2017-06-12T17:57:34Z", first.Published)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", first.Link)

	second := feed.Entries[1]
	assert.Equal(t, []string{"Jane Doe"}, second.Authors)
	assert.Empty(t, second.Link, "no alternate link in fixture")
}

func TestSearchEmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), zap.NewNop())
	feed, err := f.Search(context.Background(), "nonexistent topic", 5)

	require.NoError(t, err)
	assert.Empty(t, feed.Entries)
}

func TestSearchNon2xxIsSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), zap.NewNop())
	_, err := f.Search(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrSourceUnavailable)
}

func TestSearchConnectionErrorIsSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // sofort schließen, Verbindung schlägt fehl

	f := NewFetcher(testConfig(server.URL), zap.NewNop())
	_, err := f.Search(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrSourceUnavailable)
}

func TestSearchTimeoutIsDistinct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ArxivTimeoutSeconds = 1
	f := NewFetcher(cfg, zap.NewNop())

	start := time.Now()
	_, err := f.Search(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrSourceTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

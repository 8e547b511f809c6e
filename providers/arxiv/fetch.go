package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"researchpilot/config"
	"researchpilot/providers"
)

// Fetcher implementiert das Provider-Interface für die arXiv API.
type Fetcher struct {
	Config     *config.Config
	Logger     *zap.Logger
	httpClient *http.Client
}

// NewFetcher erstellt einen neuen arXiv Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.ArxivTimeoutSeconds) * time.Second,
		},
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "arxiv"
}

// Search führt die Suche auf arXiv aus und gibt den rohen Feed zurück.
// Der Query-Term wird unverändert übernommen, nur URL-encodiert.
func (f *Fetcher) Search(ctx context.Context, query string, maxResults int) (*providers.Feed, error) {
	log := f.Logger.With(zap.String("query", query))
	log.Info("Starte Suche auf arXiv")

	if maxResults <= 0 {
		maxResults = f.Config.ArxivMaxResults
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	searchURL := f.Config.ArxivBaseURL + "?" + params.Encode()
	log.Debug("Rufe arXiv API auf", zap.String("url", searchURL))

	ctx, cancel := context.WithTimeout(ctx, time.Duration(f.Config.ArxivTimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrSourceUnavailable, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: arXiv returned HTTP %d", providers.ErrSourceUnavailable, resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: parsing feed: %v", providers.ErrSourceUnavailable, err)
	}

	out := &providers.Feed{Source: "arXiv", Entries: make([]providers.Entry, 0, len(feed.Entries))}
	for _, entry := range feed.Entries {
		authors := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				authors = append(authors, name)
			}
		}
		out.Entries = append(out.Entries, providers.Entry{
			ID:        strings.TrimSpace(entry.ID),
			Title:     entry.Title,
			Summary:   entry.Summary,
			Authors:   authors,
			Published: strings.TrimSpace(entry.Published),
			Link:      entry.alternateLink(),
		})
	}

	log.Info("Suche auf arXiv abgeschlossen", zap.Int("found_entries", len(out.Entries)))
	return out, nil
}

// wrapTransportErr ordnet Netzwerkfehler der Fehlertaxonomie zu. Timeouts
// werden separat gemeldet, damit die HTTP-Schicht 504 statt 502 liefern kann.
func wrapTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", providers.ErrSourceTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", providers.ErrSourceTimeout, err)
	}
	return fmt.Errorf("%w: %v", providers.ErrSourceUnavailable, err)
}

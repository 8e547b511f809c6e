package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"researchpilot/models"
	"researchpilot/providers"
)

// Sentinels für fehlende Feed-Felder. Die UI verlässt sich darauf, dass Title
// und Summary nie leer sind.
const (
	UntitledPaper       = "Untitled Paper"
	NoAbstractAvailable = "No abstract available"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// FeedNormalizer bildet heterogene Feed-Einträge auf kanonische Paper-Records ab.
type FeedNormalizer struct {
	Logger *zap.Logger
}

// NewFeedNormalizer erstellt einen neuen FeedNormalizer.
func NewFeedNormalizer(logger *zap.Logger) *FeedNormalizer {
	return &FeedNormalizer{Logger: logger}
}

// Normalize wandelt einen rohen Feed in Paper-Records um. Ein leerer Feed
// ergibt eine leere Liste, nie einen Fehler. Kaputte Einzeleinträge brechen
// den Batch nicht ab; Einträge ohne jede Link-Identität werden übersprungen.
// Die Ausgabe ist auf maxResults begrenzt (maxResults <= 0: unbegrenzt).
func (n *FeedNormalizer) Normalize(feed *providers.Feed, maxResults int) []*models.Paper {
	papers := make([]*models.Paper, 0, len(feed.Entries))

	for _, entry := range feed.Entries {
		if maxResults > 0 && len(papers) >= maxResults {
			break
		}

		link := strings.TrimSpace(entry.Link)
		if link == "" {
			link = strings.TrimSpace(entry.ID)
		}
		if link == "" {
			n.Logger.Warn("Feed-Eintrag ohne Link und ID übersprungen",
				zap.String("source", feed.Source), zap.String("title", entry.Title))
			continue
		}

		title := collapseWhitespace(entry.Title)
		if title == "" {
			title = UntitledPaper
		}

		// Abstract bevorzugen, sonst Summary, sonst Sentinel.
		abstract := collapseWhitespace(entry.Abstract)
		if abstract == "" {
			abstract = collapseWhitespace(entry.Summary)
		}
		if abstract == "" {
			abstract = NoAbstractAvailable
		}

		papers = append(papers, &models.Paper{
			SourceID:      strings.TrimSpace(entry.ID),
			Title:         title,
			Summary:       abstract,
			Authors:       MarshalAuthors(entry.Authors),
			PublishedDate: strings.TrimSpace(entry.Published),
			Link:          link,
			Source:        feed.Source,
		})
	}

	n.Logger.Info("Feed normalisiert",
		zap.String("source", feed.Source),
		zap.Int("entries", len(feed.Entries)),
		zap.Int("papers", len(papers)))
	return papers
}

// MarshalAuthors serialisiert die Autorenliste in der Feed-Reihenfolge.
// Fehlende Autoren ergeben ein leeres Array, nie null.
func MarshalAuthors(authors []string) datatypes.JSON {
	if authors == nil {
		authors = []string{}
	}
	b, err := json.Marshal(authors)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}

// collapseWhitespace glättet die Zeilenumbrüche, mit denen arXiv Titel und
// Abstracts auffüllt.
func collapseWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

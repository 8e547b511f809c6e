package providers

import (
	"context"
	"errors"
)

// Fehlerklassen für externe Paper-Quellen. Die HTTP-Schicht mappt sie auf
// Status-Codes; Retries gibt es bewusst nicht.
var (
	ErrSourceUnavailable = errors.New("paper source unavailable")
	ErrSourceTimeout     = errors.New("paper source timeout")
)

// Feed ist die quellen-neutrale Form eines Suchergebnis-Feeds, bevor der
// Normalizer daraus kanonische Paper-Records macht.
type Feed struct {
	Source  string
	Entries []Entry
}

// Entry ist ein einzelner Feed-Eintrag. Felder dürfen leer sein; der
// Normalizer ist für sämtliche Fallbacks zuständig.
type Entry struct {
	ID        string
	Title     string
	Abstract  string
	Summary   string
	Authors   []string
	Published string
	Link      string
}

// Provider ist das Interface, das jede Such-Quelle (z.B. arXiv) implementieren muss.
type Provider interface {
	// Search führt eine Suche aus und gibt den rohen Feed zurück.
	// maxResults begrenzt die Trefferzahl; es wird nur die erste Seite geholt.
	Search(ctx context.Context, query string, maxResults int) (*Feed, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "arxiv").
	Name() string
}

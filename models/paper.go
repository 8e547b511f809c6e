package models

import (
	"time"

	"gorm.io/datatypes"
)

// Paper repräsentiert eine wissenschaftliche Publikation. Suchergebnisse sind
// flüchtig (ID, OwnerID und SavedAt bleiben leer); erst beim Speichern in die
// Library werden sie vom Store vergeben.
type Paper struct {
	ID        uint      `json:"storageId,omitempty" gorm:"primaryKey"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Identifier des Quell-Feeds (z.B. der arXiv Entry-URI).
	SourceID string `json:"id,omitempty"`

	Title   string `json:"title"`
	Summary string `json:"summary" gorm:"type:text"`

	// Authors ist ein geordnetes JSON-Array von Namen. Reihenfolge kommt aus dem
	// Feed und wird nie dedupliziert oder umsortiert.
	Authors datatypes.JSON `json:"authors" gorm:"type:jsonb"`

	PublishedDate string `json:"publishedDate,omitempty"`

	// Link ist die stabile externe Identität eines Papers. Bewusst kein
	// Unique-Index: doppeltes Speichern ist erlaubt.
	Link   string `json:"link" gorm:"not null"`
	Source string `json:"source,omitempty"`

	OwnerID string     `json:"ownerId,omitempty" gorm:"index"`
	SavedAt *time.Time `json:"savedAt,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"researchpilot/models"
)

// Fehlerklassen des Paper-Stores.
var (
	ErrNotFound         = errors.New("paper not found")
	ErrStoreUnavailable = errors.New("paper store unavailable")
)

// PaperStore persistiert die gespeicherten Papers eines Nutzers.
// Ownership-Scoping ist die einzige Isolationsdisziplin: jede Operation
// filtert auf OwnerID, mehr Koordination braucht der Store nicht.
type PaperStore struct {
	DB *gorm.DB
}

// NewPaperStore erstellt einen neuen PaperStore.
func NewPaperStore(db *gorm.DB) *PaperStore {
	return &PaperStore{DB: db}
}

// Save persistiert ein Paper für einen Owner. StorageID und SavedAt vergibt
// der Store; eine vom Client mitgesendete ID wird verworfen. Doppelte Links
// sind erlaubt, es gibt bewusst keinen Unique-Constraint.
func (s *PaperStore) Save(ctx context.Context, paper *models.Paper, ownerID string) (*models.Paper, error) {
	now := time.Now().UTC()
	paper.ID = 0
	paper.OwnerID = ownerID
	paper.SavedAt = &now

	if err := s.DB.WithContext(ctx).Create(paper).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return paper, nil
}

// ListByOwner gibt alle gespeicherten Papers eines Owners zurück.
// Keine Pagination, keine Sortiergarantie.
func (s *PaperStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Paper, error) {
	var papers []models.Paper
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return papers, nil
}

// DeleteByID löscht ein Paper nur, wenn es dem anfragenden Owner gehört.
// Fremde und unbekannte IDs sind nicht unterscheidbar: beide ergeben
// ErrNotFound, damit keine Existenz-Information leakt.
func (s *PaperStore) DeleteByID(ctx context.Context, storageID, ownerID string) error {
	id, err := strconv.ParseUint(storageID, 10, 64)
	if err != nil {
		// Keine gültige StorageID kann zu keinem Record gehören.
		return ErrNotFound
	}

	res := s.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Paper{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
)

// FieldStorage implements interfaces.FieldStorage for Badger
type FieldStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFieldStorage creates a new FieldStorage instance
func NewFieldStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FieldStorage {
	return &FieldStorage{
		db:     db,
		logger: logger,
	}
}

// GetAll returns configured fields in the order they were added
func (s *FieldStorage) GetAll(ctx context.Context) ([]models.FieldDescriptor, error) {
	var fields []models.FieldDescriptor
	if err := s.db.Store().Find(&fields, nil); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].CreatedAt.Equal(fields[j].CreatedAt) {
			return fields[i].ID < fields[j].ID
		}
		return fields[i].CreatedAt.Before(fields[j].CreatedAt)
	})
	return fields, nil
}

func (s *FieldStorage) GetByID(ctx context.Context, id string) (*models.FieldDescriptor, error) {
	var field models.FieldDescriptor
	err := s.db.Store().Get(id, &field)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrFieldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field %s: %w", id, err)
	}
	return &field, nil
}

// Upsert stores the field under its id, keeping CreatedAt of an existing record
func (s *FieldStorage) Upsert(ctx context.Context, field *models.FieldDescriptor) error {
	if field == nil || field.ID == "" {
		return fmt.Errorf("field id is required")
	}

	now := time.Now()
	field.UpdatedAt = now

	var existing models.FieldDescriptor
	err := s.db.Store().Get(field.ID, &existing)
	switch {
	case err == nil:
		field.CreatedAt = existing.CreatedAt
	case errors.Is(err, badgerhold.ErrNotFound):
		field.CreatedAt = now
	default:
		return fmt.Errorf("failed to check field %s: %w", field.ID, err)
	}

	if err := s.db.Store().Upsert(field.ID, field); err != nil {
		return fmt.Errorf("failed to save field %s: %w", field.ID, err)
	}

	s.logger.Debug().Str("field_id", field.ID).Msg("Field saved")
	return nil
}

func (s *FieldStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.FieldDescriptor{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrFieldNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete field %s: %w", id, err)
	}
	return nil
}

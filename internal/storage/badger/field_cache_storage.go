package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
)

// FieldCacheStorage implements interfaces.FieldCacheStorage for Badger.
// Expiry is decided by the caller from CachedAt.
type FieldCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewFieldCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FieldCacheStorage {
	return &FieldCacheStorage{
		db:     db,
		logger: logger,
	}
}

func (s *FieldCacheStorage) Get(ctx context.Context, key string) (*models.FieldCacheEntry, error) {
	var entry models.FieldCacheEntry
	err := s.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read field cache: %w", err)
	}
	return &entry, nil
}

func (s *FieldCacheStorage) Put(ctx context.Context, entry *models.FieldCacheEntry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("cache key is required")
	}
	if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to write field cache: %w", err)
	}
	return nil
}

func (s *FieldCacheStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(key, &models.FieldCacheEntry{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to delete field cache: %w", err)
	}
	return nil
}

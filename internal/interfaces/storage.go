package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/mailticket/internal/models"
)

var (
	// ErrFieldNotFound is returned when no FieldDescriptor exists for an id
	ErrFieldNotFound = errors.New("field not found")
	// ErrCacheMiss is returned when a field cache entry is absent or expired
	ErrCacheMiss = errors.New("field cache miss")
)

// FieldStorage is the repository of configured FieldDescriptors, keyed by field id
type FieldStorage interface {
	GetAll(ctx context.Context) ([]models.FieldDescriptor, error)
	GetByID(ctx context.Context, id string) (*models.FieldDescriptor, error)
	Upsert(ctx context.Context, field *models.FieldDescriptor) error
	Delete(ctx context.Context, id string) error
}

// FieldCacheStorage holds timestamped snapshots of discovered tracker fields
type FieldCacheStorage interface {
	Get(ctx context.Context, key string) (*models.FieldCacheEntry, error)
	Put(ctx context.Context, entry *models.FieldCacheEntry) error
	Delete(ctx context.Context, key string) error
}

// StorageManager owns the database and hands out the repositories built on it
type StorageManager interface {
	FieldStorage() FieldStorage
	FieldCacheStorage() FieldCacheStorage
	KeyValueStorage() KeyValueStorage
	LoadFieldsFromFile(ctx context.Context, path string) error
	Close() error
}

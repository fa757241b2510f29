package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	fields     interfaces.FieldStorage
	fieldCache interfaces.FieldCacheStorage
	kv         interfaces.KeyValueStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		fields:     NewFieldStorage(db, logger),
		fieldCache: NewFieldCacheStorage(db, logger),
		kv:         NewKVStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// FieldStorage returns the configured-field repository
func (m *Manager) FieldStorage() interfaces.FieldStorage {
	return m.fields
}

// FieldCacheStorage returns the field discovery cache
func (m *Manager) FieldCacheStorage() interfaces.FieldCacheStorage {
	return m.fieldCache
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Package badger stores portal preferences in an embedded BadgerDB.
package badger

import (
	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/config"
	"github.com/bobmcallan/fund-portal/internal/interfaces"
)

// Manager implements interfaces.StorageManager for Badger.
type Manager struct {
	db *BadgerDB
	kv *KVStorage
}

// NewManager opens the database and builds its storages.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, kv: NewKVStorage(db, logger)}, nil
}

// KeyValueStorage returns the preference key-value storage.
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

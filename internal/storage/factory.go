// Package storage selects the storage backend for the portal.
package storage

import (
	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/config"
	"github.com/bobmcallan/fund-portal/internal/interfaces"
	"github.com/bobmcallan/fund-portal/internal/storage/badger"
)

// NewStorageManager opens the configured backend. Badger is the only one.
func NewStorageManager(logger *common.Logger, cfg *config.Config) (interfaces.StorageManager, error) {
	return badger.NewManager(logger, &cfg.Storage.Badger)
}

// Package theme owns the process-wide dark mode flag.
package theme

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/interfaces"
)

// StorageKey is the key the flag is persisted under.
const StorageKey = "darkMode"

// Preference is the only accessor for the dark mode flag. It is read from the
// store once and written back on every change.
type Preference struct {
	kv     interfaces.KeyValueStorage
	logger *common.Logger

	mu   sync.Mutex
	dark bool
}

// Load restores the flag from kv. A missing or unreadable value means light mode.
func Load(ctx context.Context, kv interfaces.KeyValueStorage, logger *common.Logger) *Preference {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	p := &Preference{kv: kv, logger: logger}

	raw, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, interfaces.ErrKeyNotFound):
	case err != nil:
		logger.Warn().Err(err).Msg("failed to read theme preference, using light mode")
	default:
		dark, perr := strconv.ParseBool(raw)
		if perr != nil {
			logger.Warn().Str("value", raw).Msg("ignoring malformed theme preference")
		}
		p.dark = dark
	}
	return p
}

// Dark reports whether dark mode is on.
func (p *Preference) Dark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

// Toggle flips the flag, persists it and returns the new value.
func (p *Preference) Toggle(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.setLocked(ctx, !p.dark)
	return p.dark, err
}

// Set stores an explicit value.
func (p *Preference) Set(ctx context.Context, dark bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setLocked(ctx, dark)
}

// setLocked updates the in-memory flag even when the write fails so the UI
// stays responsive; the error is returned for logging.
func (p *Preference) setLocked(ctx context.Context, dark bool) error {
	p.dark = dark
	if err := p.kv.Set(ctx, StorageKey, strconv.FormatBool(dark)); err != nil {
		p.logger.Warn().Err(err).Bool("dark", dark).Msg("failed to persist theme preference")
		return err
	}
	return nil
}

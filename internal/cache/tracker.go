package cache

import (
	"context"
	"errors"
	"time"

	"github.com/glyphlabs/glyph/internal/ledger"
	"github.com/glyphlabs/glyph/internal/metrics"
)

// StatusSource polls the authoritative status of a transaction.
// *ledger.Client satisfies it.
type StatusSource interface {
	GetStatus(ctx context.Context, txID string) (ledger.Status, error)
}

// Tracker answers status queries from the cache when possible and falls back
// to the source when the cached entry is missing or stale. Terminal statuses
// are served from cache indefinitely.
type Tracker struct {
	cache     *StatusCache
	storage   *FileStorage
	source    StatusSource
	staleness time.Duration
}

// NewTracker creates a Tracker. storage may be nil for a memory-only cache.
func NewTracker(source StatusSource, storage *FileStorage, staleness time.Duration) (*Tracker, error) {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}

	c := NewStatusCache()
	if storage != nil {
		loaded, err := storage.Load()
		// A corrupt file was already moved aside and Load returned a
		// fresh cache; anything else is a real failure.
		if err != nil && !errors.Is(err, ErrCorruptCache) {
			return nil, err
		}
		if loaded != nil {
			c = loaded
		}
	}

	return &Tracker{
		cache:     c,
		storage:   storage,
		source:    source,
		staleness: staleness,
	}, nil
}

// Status returns the transaction status, polling the source only when the
// cached entry is missing or stale.
func (t *Tracker) Status(ctx context.Context, txID string) (ledger.Status, error) {
	if !t.cache.IsStaleWithDuration(txID, t.staleness) {
		entry, _, _ := t.cache.Get(txID)
		metrics.Global.RecordCacheHit()
		return entry.Status, nil
	}
	metrics.Global.RecordCacheMiss()

	status, err := t.source.GetStatus(ctx, txID)
	if err != nil {
		return "", err
	}

	t.cache.Set(StatusCacheEntry{TxID: txID, Status: status})
	if t.storage != nil {
		if err := t.storage.Save(t.cache); err != nil {
			// A failed cache write never fails the lookup.
			return status, nil
		}
	}
	return status, nil
}

package dataset

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"account-explorer/internal/metrics"
	"account-explorer/internal/models"
)

// Loader reads a source once and keeps the normalized Dataset for the life of
// the process, keyed by source identity. Only Invalidate drops an entry.
type Loader struct {
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*models.Dataset
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
		cache:  make(map[string]*models.Dataset),
	}
}

// Load returns the cached Dataset for src, reading and normalizing it on the
// first call. Concurrent first calls may both read; the results are equal.
func (l *Loader) Load(ctx context.Context, src Source) (*models.Dataset, error) {
	id := src.Identity()

	l.mu.RLock()
	ds, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return ds, nil
	}

	start := time.Now()
	raw, err := src.Fetch(ctx)
	if err != nil {
		metrics.RecordDatasetLoad("error", time.Since(start))
		l.logger.Error("dataset load failed",
			zap.String("source", id),
			zap.Error(err))
		return nil, newLoadError(id, src.Sheet(), err)
	}

	ds = Normalize(id, raw)
	metrics.RecordDatasetLoad("ok", time.Since(start))
	metrics.DatasetRows.Set(float64(ds.Len()))

	l.mu.Lock()
	l.cache[id] = ds
	l.mu.Unlock()

	l.logger.Info("dataset loaded",
		zap.String("source", id),
		zap.Int("rows", ds.Len()),
		zap.Strings("columns", ds.Columns),
		zap.Duration("elapsed", time.Since(start)))
	return ds, nil
}

// Invalidate forgets the cached Dataset for src so the next Load re-reads it.
func (l *Loader) Invalidate(src Source) {
	l.mu.Lock()
	delete(l.cache, src.Identity())
	l.mu.Unlock()
	l.logger.Info("dataset cache invalidated", zap.String("source", src.Identity()))
}

package geocode

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"account-explorer/internal/metrics"
	"account-explorer/internal/models"
)

// Provider resolves a batch of ZIP codes. Unknown ZIPs are simply missing
// from the result; an error means the whole batch failed.
type Provider interface {
	Lookup(ctx context.Context, zips []string) (map[string]models.GeoPoint, error)
}

// Cache memoizes Provider results by the exact set of distinct ZIPs asked
// for. Entries are never invalidated: postal coordinates are static.
type Cache struct {
	provider Provider
	logger   *zap.Logger

	mu      sync.RWMutex
	batches map[string]map[string]models.GeoPoint
}

func NewCache(provider Provider, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		provider: provider,
		logger:   logger,
		batches:  make(map[string]map[string]models.GeoPoint),
	}
}

// Resolve returns coordinates for the ZIPs that resolve. Empty ZIPs are never
// looked up. A provider failure is logged and yields an empty map; it is not
// memoized, so the next call retries. The returned map is shared and must
// not be modified.
func (c *Cache) Resolve(ctx context.Context, zips []string) map[string]models.GeoPoint {
	key, distinct := BatchKey(zips)
	if len(distinct) == 0 {
		return map[string]models.GeoPoint{}
	}

	c.mu.RLock()
	hit, ok := c.batches[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordGeocode("hit")
		return hit
	}

	points, err := c.provider.Lookup(ctx, distinct)
	if err != nil {
		metrics.RecordGeocode("error")
		c.logger.Warn("geocoding batch failed, map disabled for this selection",
			zap.Int("zips", len(distinct)),
			zap.Error(err))
		return map[string]models.GeoPoint{}
	}
	metrics.RecordGeocode("miss")

	resolved := make(map[string]models.GeoPoint, len(points))
	for _, z := range distinct {
		if p, ok := points[z]; ok {
			resolved[z] = p
		}
	}

	c.mu.Lock()
	c.batches[key] = resolved
	c.mu.Unlock()

	c.logger.Debug("geocoded batch",
		zap.Int("zips", len(distinct)),
		zap.Int("resolved", len(resolved)))
	return resolved
}

// Len reports the number of memoized batches.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.batches)
}

// BatchKey returns the memo key and the sorted distinct non-empty ZIPs.
func BatchKey(zips []string) (string, []string) {
	distinct := models.NormalizeSet(zips)
	return strings.Join(distinct, ","), distinct
}

// Attach pairs every row with the coordinates of its ZIP. Rows without a
// resolved ZIP keep HasGeo false; they stay in tables but leave the map.
func Attach(ds *models.Dataset, rows []models.Record, points map[string]models.GeoPoint) []models.Located {
	col, hasZip := ds.Schema.Index(models.DimZip)
	out := make([]models.Located, 0, len(rows))
	for _, r := range rows {
		loc := models.Located{Record: r}
		if hasZip {
			loc.Zip = r.Cell(col)
			if p, ok := points[loc.Zip]; ok && loc.Zip != "" {
				loc.Point = p
				loc.HasGeo = true
			}
		}
		out = append(out, loc)
	}
	return out
}

// Zips collects the ZIP cell of each row.
func Zips(ds *models.Dataset, rows []models.Record) []string {
	col, ok := ds.Schema.Index(models.DimZip)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Cell(col))
	}
	return out
}

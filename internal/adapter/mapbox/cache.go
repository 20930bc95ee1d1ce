package mapbox

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// query and region. Schools sharing a name and address resolve once per run.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu    sync.Mutex
	cache *lru.Cache
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		cache:   lru.New(maxEntries),
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query, region string) (domain.GeocodingResult, error) {
	key := query + "|" + region
	if result, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, query, region)
	if err != nil {
		return result, err
	}
	// Empty results stay uncached so a later run can retry them.
	if result.FormattedAddress != "" {
		c.put(key, result)
	}
	return result, nil
}

// Len returns the number of cached results.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *CachedGeocoder) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(key)
	if !ok {
		return domain.GeocodingResult{}, false
	}
	return v.(domain.GeocodingResult), true
}

func (c *CachedGeocoder) put(key string, result domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, result)
}

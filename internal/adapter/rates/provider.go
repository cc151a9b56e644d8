package rates

import (
	"context"
	"time"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/rs/zerolog"
)

// CachedProvider implements ports.RateProvider as a read-through cache over
// a RateSource. Rates within the staleness window are served from the cache;
// a cache miss triggers a fetch and a write-back with the window as TTL.
// Cache errors degrade to a direct fetch, never to stale math.
type CachedProvider struct {
	source ports.RateSource
	cache  ports.RateCache
	window time.Duration
	log    zerolog.Logger
}

// NewCachedProvider creates a new CachedProvider.
func NewCachedProvider(source ports.RateSource, cache ports.RateCache, window time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{source: source, cache: cache, window: window, log: log}
}

// Rates returns the current rate table.
func (p *CachedProvider) Rates(ctx context.Context) (domain.RateTable, error) {
	cached, err := p.cache.Get(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("rate cache read failed, fetching directly")
	} else if cached != nil {
		return *cached, nil
	}

	table, err := p.source.Fetch(ctx)
	if err != nil {
		return domain.RateTable{}, err
	}

	if err := p.cache.Set(ctx, table, p.window); err != nil {
		p.log.Warn().Err(err).Msg("rate cache write failed")
	}
	return table, nil
}

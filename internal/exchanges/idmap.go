package exchanges

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/metrics"
	"github.com/chainboard/chainboard/internal/store"
)

// BuildMap returns an identifier→centralized map covering every requested
// identifier. The persisted map only ever grows: catalog-derived entries
// overwrite older ones, request-time keyword evidence forces decentralized,
// and unknown identifiers default to centralized.
//
// Fast path: when the cached map already covers every requested identifier
// it is returned as-is, with no catalog fetch.
func (s *Service) BuildMap(ctx context.Context, identifiers []string) (map[string]bool, error) {
	m := make(map[string]bool)
	err := s.cache.GetJSON(ctx, idMapCacheKey, &m)
	switch {
	case err == nil:
		if coversAll(m, identifiers) {
			metrics.IncCacheOp("idmap", "hit")
			return m, nil
		}
		metrics.IncCacheOp("idmap", "miss")
	case errors.Is(err, store.ErrNotFound):
		metrics.IncCacheOp("idmap", "miss")
		m = make(map[string]bool)
	default:
		// Unreachable cache reads degrade to a rebuild, never a failure.
		metrics.IncCacheOp("idmap", "error")
		s.logger.Warn("exchanges.idmap_cache_read_failed", zap.Error(err))
		m = make(map[string]bool)
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	// Catalog-derived classification is authoritative over older map entries.
	names := make(map[string]string, len(catalog))
	for _, v := range catalog {
		if v.ID == "" || v.Name == "" {
			continue
		}
		m[v.ID] = v.Centralized
		names[v.ID] = v.Name
	}

	// Requested identifiers may never appear in the catalog (venues seen only
	// in a token's ticker listings). Classify each directly; keyword evidence
	// at request time overrides the catalog verdict, but only toward DEX.
	for _, id := range identifiers {
		name, known := names[id]
		if !known {
			name = id
		}
		if s.classifier.IsKeywordDecentralized(id, name) {
			m[id] = false
			continue
		}
		if _, ok := m[id]; !ok {
			m[id] = true
		}
	}

	// Persist unconditionally: even a no-op merge refreshes the TTL.
	if err := s.cache.SetJSON(ctx, idMapCacheKey, m, s.mapTTL); err != nil {
		s.logger.Warn("exchanges.idmap_cache_write_failed", zap.Error(err))
	}

	return m, nil
}

func coversAll(m map[string]bool, identifiers []string) bool {
	for _, id := range identifiers {
		if _, ok := m[id]; !ok {
			return false
		}
	}
	return true
}

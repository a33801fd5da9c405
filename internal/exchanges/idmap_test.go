package exchanges

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainboard/chainboard/internal/marketdata"
)

// ─── Fast path ───────────────────────────────────────────────────────────────

func TestBuildMap_FastPathSkipsCatalogFetch(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	seeded := map[string]bool{"binance": true, "uniswap-v3": false}
	require.NoError(t, kv.SetJSON(context.Background(), idMapCacheKey, seeded, time.Hour))

	lister := &fakeLister{}
	svc := newTestService(t, lister, kv)

	m, err := svc.BuildMap(context.Background(), []string{"binance", "uniswap-v3"})
	require.NoError(t, err)
	assert.Equal(t, seeded, m)
	assert.Zero(t, lister.calls, "full cache coverage must not trigger a catalog fetch")
}

func TestBuildMap_MissingIdentifierTriggersRebuild(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	require.NoError(t, kv.SetJSON(context.Background(), idMapCacheKey,
		map[string]bool{"binance": true}, time.Hour))

	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "binance", Name: "Binance"},
		{ID: "kraken", Name: "Kraken"},
	}}}
	svc := newTestService(t, lister, kv)

	m, err := svc.BuildMap(context.Background(), []string{"binance", "kraken"})
	require.NoError(t, err)
	assert.True(t, m["kraken"])
	assert.Positive(t, lister.calls)
}

// ─── Merge semantics ─────────────────────────────────────────────────────────

func TestBuildMap_KeywordEvidenceOverridesCatalog(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	// Catalog snapshot mis-flagged upstream: "Foo Swap" cached as centralized.
	stale := []Venue{{ID: "x", Name: "Foo Swap", Centralized: true}}
	require.NoError(t, kv.SetJSON(context.Background(), catalogCacheKey, stale, time.Hour))

	svc := newTestService(t, &fakeLister{}, kv)

	m, err := svc.BuildMap(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.False(t, m["x"], `keyword evidence ("swap") must win over the catalog value`)
}

func TestBuildMap_NoForceTowardCentralized(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	// Catalog knows this venue is decentralized via its source flag; the
	// requested identifier itself matches neither table. The existing entry
	// must survive — defaults never overwrite.
	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "obscure-venue", Name: "Obscure Venue", Centralized: boolPtr(false)},
	}}}
	svc := newTestService(t, lister, kv)

	m, err := svc.BuildMap(context.Background(), []string{"obscure-venue"})
	require.NoError(t, err)
	assert.False(t, m["obscure-venue"])
}

func TestBuildMap_MapIsASuperset(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	require.NoError(t, kv.SetJSON(context.Background(), idMapCacheKey,
		map[string]bool{"old-venue": true}, time.Hour))

	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "kraken", Name: "Kraken"},
	}}}
	svc := newTestService(t, lister, kv)

	m, err := svc.BuildMap(context.Background(), []string{"kraken"})
	require.NoError(t, err)
	assert.True(t, m["old-venue"], "existing entries are never shrunk away")
	assert.True(t, m["kraken"])
}

func TestBuildMap_PersistsMergedMap(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "binance", Name: "Binance"},
	}}}
	svc := newTestService(t, lister, kv)

	_, err := svc.BuildMap(context.Background(), []string{"binance", "pancakeswap"})
	require.NoError(t, err)

	persisted := map[string]bool{}
	require.NoError(t, kv.GetJSON(context.Background(), idMapCacheKey, &persisted))
	assert.True(t, persisted["binance"])
	assert.False(t, persisted["pancakeswap"])
}

// ─── End-to-end scenario ─────────────────────────────────────────────────────

func TestBuildMap_ColdCacheEndToEnd(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "binance", Name: "Binance"},
		{ID: "kraken", Name: "Kraken"},
	}}}
	svc := newTestService(t, lister, kv)

	m, err := svc.BuildMap(context.Background(),
		[]string{"binance", "pancakeswap", "unknown-id-123"})
	require.NoError(t, err)

	assert.True(t, m["binance"], "allow-list")
	assert.False(t, m["pancakeswap"], "keyword, despite not being in the catalog")
	assert.True(t, m["unknown-id-123"], "matches neither list, defaults centralized")
}

// ─── Failure semantics ───────────────────────────────────────────────────────

func TestBuildMap_CacheUnreachableStillProducesMap(t *testing.T) {
	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "kraken", Name: "Kraken"},
	}}}
	svc := newTestService(t, lister, brokenKV{})

	m, err := svc.BuildMap(context.Background(), []string{"kraken"})
	require.NoError(t, err, "cache failures degrade, they do not propagate")
	assert.True(t, m["kraken"])
}

func TestBuildMap_ColdCacheAndNoCatalogIsAnError(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	svc := newTestService(t, &fakeLister{failAtPage: 1}, kv)

	_, err := svc.BuildMap(context.Background(), []string{"anything"})
	require.Error(t, err)
}

func TestBuildMap_RequestRefreshesTTL(t *testing.T) {
	kv, mr := newTestKV(t)
	defer mr.Close()

	lister := &fakeLister{pages: [][]marketdata.Exchange{{
		{ID: "kraken", Name: "Kraken"},
	}}}
	svc := newTestService(t, lister, kv)

	_, err := svc.BuildMap(context.Background(), []string{"kraken", "binance"})
	require.NoError(t, err)
	assert.Positive(t, mr.TTL(idMapCacheKey), "persisted map carries an expiry")
}

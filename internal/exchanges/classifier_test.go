package exchanges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestClassify_AllowListWinsOverKeyword(t *testing.T) {
	c := NewClassifier()

	// "binance-v3" contains the DEX suffix "v3", but "binance" is on the
	// allow-list and the allow-list is checked first.
	assert.True(t, c.Classify("binance-v3", "Binance V3", nil))
	assert.True(t, c.Classify("okex-swap", "OKEx Swap", nil))
}

func TestClassify_AllowListCaseInsensitive(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.Classify("BINANCE", "", nil))
	assert.True(t, c.Classify("", "KuCoin", nil))
	assert.True(t, c.Classify("gdax", "Coinbase Exchange", nil))
}

func TestClassify_KeywordMatchesAreDecentralized(t *testing.T) {
	c := NewClassifier()

	assert.False(t, c.Classify("uniswap-v3", "Uniswap V3", nil))
	assert.False(t, c.Classify("pancakeswap", "PancakeSwap", nil))
	assert.False(t, c.Classify("raydium", "Raydium", nil))
	// Name-only evidence is enough
	assert.False(t, c.Classify("x", "Foo Swap", nil))
	// Keyword evidence beats an upstream flag claiming centralized
	assert.False(t, c.Classify("curve-ethereum", "Curve", boolPtr(true)))
}

func TestClassify_FallbackToSourceFlag(t *testing.T) {
	c := NewClassifier()

	assert.False(t, c.Classify("obscure-venue", "Obscure Venue", boolPtr(false)))
	assert.True(t, c.Classify("obscure-venue", "Obscure Venue", boolPtr(true)))
}

func TestClassify_DefaultCentralized(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.Classify("obscure-venue", "Obscure Venue", nil))
	assert.True(t, c.Classify("", "", nil))
}

func TestIsKeywordDecentralized_RespectsAllowList(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.IsKeywordDecentralized("uniswap-v3", "Uniswap V3"))
	assert.False(t, c.IsKeywordDecentralized("binance-v3", "Binance V3"))
	assert.False(t, c.IsKeywordDecentralized("obscure-venue", "Obscure Venue"))
}

func TestClassifier_CustomTables(t *testing.T) {
	c := NewClassifierWithTables([]string{"TrustedCo"}, []string{"chain"})

	assert.True(t, c.Classify("trustedco-chain", "TrustedCo Chain", nil))
	assert.False(t, c.Classify("onchain-market", "OnChain Market", nil))
	assert.True(t, c.Classify("plain", "Plain", nil))
}

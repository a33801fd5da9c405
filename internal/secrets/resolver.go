package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgsecrets "github.com/chainboard/chainboard/pkg/secrets"
)

// Credentials holds the upstream API keys the dashboard talks with.
// All fields are optional: absent keys fall back to public/unauthenticated
// tiers or to values provided via environment variables.
type Credentials struct {
	MarketDataAPIKey string
	RepoHostToken    string
	LLMAPIKey        string
}

// Resolver fetches upstream credentials from a secrets manager, with a local
// TTL cache in front.
//
// Secret naming convention: {env}/chainboard/api-keys
// Secret JSON format:       {"marketdata_api_key": "...", "repohost_token": "...", "llm_api_key": "..."}
type Resolver struct {
	logger   *zap.Logger
	env      string
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[Credentials]
}

func NewResolver(logger *zap.Logger, env string, provider pkgsecrets.Provider, cache *pkgsecrets.Cache[Credentials]) *Resolver {
	return &Resolver{
		logger:   logger,
		env:      env,
		provider: provider,
		cache:    cache,
	}
}

func (r *Resolver) secretName() string {
	return fmt.Sprintf("%s/chainboard/api-keys", r.env)
}

// Resolve returns the credential set, from cache when fresh.
func (r *Resolver) Resolve(ctx context.Context) (Credentials, error) {
	name := r.secretName()
	if cached, ok := r.cache.Get(name); ok {
		return cached, nil
	}

	m, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		return Credentials{}, fmt.Errorf("fetch secret %s: %w", name, err)
	}

	creds := Credentials{
		MarketDataAPIKey: m["marketdata_api_key"],
		RepoHostToken:    m["repohost_token"],
		LLMAPIKey:        m["llm_api_key"],
	}
	r.cache.Put(name, creds)

	r.logger.Info("secrets.credentials_resolved",
		zap.String("secret", name),
		zap.Bool("marketdata", creds.MarketDataAPIKey != ""),
		zap.Bool("repohost", creds.RepoHostToken != ""),
		zap.Bool("llm", creds.LLMAPIKey != ""))
	return creds, nil
}

// Bust drops the cached credential set, forcing a re-fetch on next resolve.
// Called on secret rotation.
func (r *Resolver) Bust() {
	r.cache.Bust(r.secretName())
}

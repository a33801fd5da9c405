package secrets

import "context"

// Provider abstracts a secrets manager backend. The AWS implementation is the
// only one in-tree; others just need these two calls.
type Provider interface {
	// GetSecret retrieves a secret by name and returns its key-value payload.
	GetSecret(ctx context.Context, key string) (map[string]string, error)

	// ListSecrets returns the names of all secrets under the given prefix.
	ListSecrets(ctx context.Context, prefix string) ([]string, error)
}

package token

import "context"

// Provider supplies the bearer credential attached to outbound API calls.
// Issuance and refresh belong to the external identity provider; the sync
// service only forwards whatever opaque string the provider hands out.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Static fixed credential provider
type Static string

// Token return the fixed credential
func (s Static) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// ProviderFunc adapt a function into a Provider
type ProviderFunc func(ctx context.Context) (string, error)

// Token call the wrapped function
func (f ProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

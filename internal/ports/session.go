package ports

import "context"

// CredentialStore provides the bearer credential for backend calls.
// An absent credential means "not authenticated": callers must
// short-circuit instead of issuing unauthenticated requests.
type CredentialStore interface {
	// Token returns the current bearer credential, or
	// domain.ErrNotAuthenticated when none is stored
	Token(ctx context.Context) (string, error)
}

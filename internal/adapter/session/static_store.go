package session

import (
	"context"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/ports"
)

// StaticStore serves a fixed credential, for single-operator
// deployments and tests
type StaticStore struct {
	token string
}

var _ ports.CredentialStore = (*StaticStore)(nil)

// NewStaticStore creates a store around a fixed token; an empty token
// means not authenticated
func NewStaticStore(token string) *StaticStore {
	return &StaticStore{token: token}
}

// Token returns the fixed credential
func (s *StaticStore) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", domain.ErrNotAuthenticated
	}
	return s.token, nil
}

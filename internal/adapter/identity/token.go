package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fixboard/fixboard/internal/domain"
)

// Claims are the identity fields carried by the session credential
type Claims struct {
	Subject   string
	Name      string
	ExpiresAt time.Time
}

// Inspect decodes the credential's claims without verifying the
// signature. Verification is the backend's job; this exists only so the
// engine can refuse to start polling with a credential that is already
// dead.
func Inspect(token string) (*Claims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, domain.WrapEngineError(domain.ErrCodeUnauthorized, err, "malformed credential")
	}

	out := &Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if name, ok := claims["name"].(string); ok {
		out.Name = name
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Expired reports whether the credential's expiry has passed. A token
// without an exp claim never expires from the engine's point of view.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

package models

import "github.com/golang-jwt/jwt/v5"

// Principal roles. The core only distinguishes admins (who review drafts)
// from everyone else; route-level checks live in the middleware.
const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
)

// Principal is the authenticated caller as seen by the core. ID and Email
// are nil under the public (anonymous) authenticator.
type Principal struct {
	ID    *string `json:"id"`
	Email *string `json:"email"`
	Role  string  `json:"role"`
}

// Anonymous returns true when the principal carries no identity.
func (p *Principal) Anonymous() bool {
	return p == nil || p.ID == nil
}

// IDTokenClaims represents the JWT claims structure issued by the OAuth
// identity provider.
type IDTokenClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *IDTokenClaims) GetUserID() string {
	return c.Subject
}

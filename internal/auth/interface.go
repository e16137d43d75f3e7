package auth

import (
	"net/http"

	"inkwell/internal/domain/models"
)

// Authenticator resolves an HTTP request to a principal. Exactly one
// implementation is selected at startup from the configured auth mode; the
// rest of the system never learns which.
type Authenticator interface {
	// Authenticate validates the request's credentials and returns the
	// caller's principal. Implementations return UnauthorizedError for
	// missing/invalid credentials and ForbiddenError for valid credentials
	// that fail a policy check.
	Authenticate(r *http.Request) (*models.Principal, error)

	// Close releases any resources held by the authenticator.
	Close() error
}

// JWTVerifier defines the interface for JWT token verification.
// This abstraction allows for different JWT verification implementations
// while keeping the authenticators agnostic to the verification details.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.IDTokenClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}

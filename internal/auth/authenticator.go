package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
)

// New maps the configured auth mode to a concrete authenticator. This is the
// only place the mode is inspected.
func New(cfg *config.Config, logger *slog.Logger) (Authenticator, error) {
	admins := parseAdminEmails(cfg.AdminEmails)

	switch cfg.AuthMode {
	case config.AuthModePublic:
		return &PublicAuthenticator{}, nil

	case config.AuthModeOAuth:
		verifier, err := NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			return nil, fmt.Errorf("oauth authenticator: %w", err)
		}
		return &OAuthAuthenticator{verifier: verifier, admins: admins}, nil

	case config.AuthModeDomainRestricted:
		verifier, err := NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			return nil, fmt.Errorf("domain authenticator: %w", err)
		}
		return &DomainRestrictedAuthenticator{
			inner:  &OAuthAuthenticator{verifier: verifier, admins: admins},
			domain: strings.ToLower(cfg.AllowedEmailDomain),
		}, nil

	default:
		return nil, fmt.Errorf("unknown auth mode '%s'", cfg.AuthMode)
	}
}

func parseAdminEmails(raw string) map[string]bool {
	admins := make(map[string]bool)
	for _, email := range strings.Split(raw, ",") {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = true
		}
	}
	return admins
}

// PublicAuthenticator accepts every request as an anonymous contributor.
// Anonymous authorship is valid: drafts carry no author fields.
type PublicAuthenticator struct{}

func (a *PublicAuthenticator) Authenticate(r *http.Request) (*models.Principal, error) {
	return &models.Principal{Role: models.RoleContributor}, nil
}

func (a *PublicAuthenticator) Close() error { return nil }

// OAuthAuthenticator verifies a bearer JWT against the identity provider's
// JWKS keys and maps the claims to a principal.
type OAuthAuthenticator struct {
	verifier JWTVerifier
	admins   map[string]bool
}

func (a *OAuthAuthenticator) Authenticate(r *http.Request) (*models.Principal, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := a.verifier.VerifyToken(token)
	if err != nil {
		return nil, &domain.UnauthorizedError{Message: "invalid or expired token"}
	}

	id := claims.GetUserID()
	email := claims.Email
	role := models.RoleContributor
	if a.admins[strings.ToLower(email)] {
		role = models.RoleAdmin
	}

	principal := &models.Principal{ID: &id, Role: role}
	if email != "" {
		principal.Email = &email
	}
	return principal, nil
}

func (a *OAuthAuthenticator) Close() error { return a.verifier.Close() }

// DomainRestrictedAuthenticator wraps OAuth verification with an email
// domain allow-check.
type DomainRestrictedAuthenticator struct {
	inner  *OAuthAuthenticator
	domain string
}

func (a *DomainRestrictedAuthenticator) Authenticate(r *http.Request) (*models.Principal, error) {
	principal, err := a.inner.Authenticate(r)
	if err != nil {
		return nil, err
	}

	if principal.Email == nil || !strings.HasSuffix(strings.ToLower(*principal.Email), "@"+a.domain) {
		return nil, &domain.ForbiddenError{
			Message: fmt.Sprintf("access restricted to @%s accounts", a.domain),
		}
	}

	return principal, nil
}

func (a *DomainRestrictedAuthenticator) Close() error { return a.inner.Close() }

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", &domain.UnauthorizedError{Message: "missing Authorization header"}
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", &domain.UnauthorizedError{Message: "malformed Authorization header"}
	}
	return token, nil
}

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
)

// stubVerifier returns canned claims keyed by token string.
type stubVerifier struct {
	claims map[string]*models.IDTokenClaims
}

func (v *stubVerifier) VerifyToken(tokenString string) (*models.IDTokenClaims, error) {
	claims, ok := v.claims[tokenString]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return claims, nil
}

func (v *stubVerifier) Close() error { return nil }

func tokenFor(subject, email string) *models.IDTokenClaims {
	return &models.IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            email,
	}
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestPublicAuthenticator(t *testing.T) {
	a := &PublicAuthenticator{}

	// No credentials of any kind
	principal, err := a.Authenticate(httptest.NewRequest(http.MethodGet, "/api/drafts", nil))
	if err != nil {
		t.Fatalf("Authenticate() unexpected error: %v", err)
	}
	if !principal.Anonymous() {
		t.Errorf("principal = %+v, want anonymous", principal)
	}
	if principal.Role != models.RoleContributor {
		t.Errorf("Role = %q, want contributor", principal.Role)
	}
}

func TestOAuthAuthenticator(t *testing.T) {
	verifier := &stubVerifier{claims: map[string]*models.IDTokenClaims{
		"tok-user":  tokenFor("u1", "ada@example.com"),
		"tok-admin": tokenFor("u2", "Boss@Example.com"),
	}}
	a := &OAuthAuthenticator{verifier: verifier, admins: parseAdminEmails("boss@example.com")}

	t.Run("contributor", func(t *testing.T) {
		principal, err := a.Authenticate(requestWithToken("tok-user"))
		if err != nil {
			t.Fatalf("Authenticate() unexpected error: %v", err)
		}
		if principal.ID == nil || *principal.ID != "u1" {
			t.Errorf("ID = %v, want u1", principal.ID)
		}
		if principal.Role != models.RoleContributor {
			t.Errorf("Role = %q, want contributor", principal.Role)
		}
	})

	t.Run("admin email is case-insensitive", func(t *testing.T) {
		principal, err := a.Authenticate(requestWithToken("tok-admin"))
		if err != nil {
			t.Fatalf("Authenticate() unexpected error: %v", err)
		}
		if principal.Role != models.RoleAdmin {
			t.Errorf("Role = %q, want admin", principal.Role)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := a.Authenticate(requestWithToken("tok-forged"))
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Authenticate() error = %v, want unauthorized", err)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := a.Authenticate(requestWithToken(""))
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Authenticate() error = %v, want unauthorized", err)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, err := a.Authenticate(r)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Authenticate() error = %v, want unauthorized", err)
		}
	})
}

func TestDomainRestrictedAuthenticator(t *testing.T) {
	verifier := &stubVerifier{claims: map[string]*models.IDTokenClaims{
		"tok-inside":  tokenFor("u1", "ada@Corp.Example"),
		"tok-outside": tokenFor("u2", "mallory@gmail.com"),
		"tok-noemail": tokenFor("u3", ""),
	}}
	a := &DomainRestrictedAuthenticator{
		inner:  &OAuthAuthenticator{verifier: verifier, admins: map[string]bool{}},
		domain: "corp.example",
	}

	t.Run("allowed domain", func(t *testing.T) {
		principal, err := a.Authenticate(requestWithToken("tok-inside"))
		if err != nil {
			t.Fatalf("Authenticate() unexpected error: %v", err)
		}
		if principal.Email == nil || *principal.Email != "ada@Corp.Example" {
			t.Errorf("Email = %v", principal.Email)
		}
	})

	t.Run("outside domain", func(t *testing.T) {
		_, err := a.Authenticate(requestWithToken("tok-outside"))
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Authenticate() error = %v, want forbidden", err)
		}
	})

	t.Run("no email claim", func(t *testing.T) {
		_, err := a.Authenticate(requestWithToken("tok-noemail"))
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Authenticate() error = %v, want forbidden", err)
		}
	})

	t.Run("bad credentials stay unauthorized", func(t *testing.T) {
		_, err := a.Authenticate(requestWithToken("tok-forged"))
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Authenticate() error = %v, want unauthorized", err)
		}
	})
}

func TestParseAdminEmails(t *testing.T) {
	admins := parseAdminEmails(" Boss@Example.com, ,ops@example.com ")
	if len(admins) != 2 {
		t.Fatalf("parsed %d admins, want 2: %v", len(admins), admins)
	}
	if !admins["boss@example.com"] || !admins["ops@example.com"] {
		t.Errorf("admins = %v, want lowercased trimmed entries", admins)
	}
}

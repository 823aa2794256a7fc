package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var fixedNow = func() time.Time { return time.Unix(1700000000, 0) }

func newVerifier(t *testing.T) *TokenVerifier {
	t.Helper()
	verifier, err := NewTokenVerifier(TokenVerifierConfig{
		SigningSecret: []byte("verifier-test-secret"),
		Clock:         fixedNow,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return verifier
}

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func baseClaims(subject string, expiresAt time.Time) Claims {
	return Claims{
		DisplayName: "Ada",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    defaultIssuer,
			IssuedAt:  jwt.NewNumericDate(fixedNow()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	verifier := newVerifier(t)
	token := signToken(t, baseClaims("user-1", fixedNow().Add(30*time.Minute)), "verifier-test-secret")

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.DisplayName != "Ada" {
		t.Fatalf("unexpected display name %q", claims.DisplayName)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	verifier := newVerifier(t)
	token := signToken(t, baseClaims("user-1", fixedNow().Add(-time.Minute)), "verifier-test-secret")

	if _, err := verifier.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	verifier := newVerifier(t)
	token := signToken(t, baseClaims("user-1", fixedNow().Add(time.Hour)), "another-secret")

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	verifier := newVerifier(t)
	claims := baseClaims("user-1", fixedNow().Add(time.Hour))
	claims.Issuer = "someone-else"
	token := signToken(t, claims, "verifier-test-secret")

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	verifier := newVerifier(t)
	token := signToken(t, baseClaims("  ", fixedNow().Add(time.Hour)), "verifier-test-secret")

	if _, err := verifier.Verify(token); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}

func TestVerifyRejectsEmptyAndGarbageTokens(t *testing.T) {
	verifier := newVerifier(t)

	if _, err := verifier.Verify("   "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := verifier.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenVerifierRequiresSecret(t *testing.T) {
	if _, err := NewTokenVerifier(TokenVerifierConfig{}); !errors.Is(err, ErrMissingSigningKey) {
		t.Fatalf("expected ErrMissingSigningKey, got %v", err)
	}
}

func TestIssuerOutputVerifies(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("verifier-test-secret"),
		TokenTTL:      time.Hour,
		Clock:         fixedNow,
	})
	signed, expiresIn, err := issuer.IssueToken("user-1", "Ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if expiresIn != 3600 {
		t.Fatalf("expected 3600s lifetime, got %d", expiresIn)
	}

	claims, err := newVerifier(t).Verify(signed)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Subject != "user-1" || claims.DisplayName != "Ada" {
		t.Fatalf("round trip lost claims: %+v", claims)
	}
}

func TestIssueTokenValidatesInput(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{Clock: fixedNow})
	if _, _, err := issuer.IssueToken("user-1", ""); err == nil {
		t.Fatalf("expected error without signing secret")
	}

	issuer = NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("x"), Clock: fixedNow})
	if _, _, err := issuer.IssueToken("  ", ""); err == nil {
		t.Fatalf("expected error without subject")
	}
}

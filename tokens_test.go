package oneblog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mustTokens(t *testing.T, secret string, opts ...TokenOption) *SessionTokens {
	t.Helper()
	tokens, err := NewSessionTokens([]byte(secret), opts...)
	if err != nil {
		t.Fatalf("NewSessionTokens() error = %v", err)
	}
	return tokens
}

func TestSessionTokens_RoundTrip(t *testing.T) {
	tokens := mustTokens(t, "test-secret")

	tok, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	again, _ := tokens.Issue("user-1")
	if tok != again {
		t.Error("expected identical tokens for identical input without expiry")
	}

	userID, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Verify() = %q, want user-1", userID)
	}

	if _, err := tokens.Issue(""); err == nil {
		t.Error("expected error issuing for empty user id")
	}
}

func TestSessionTokens_EmptySecret(t *testing.T) {
	if _, err := NewSessionTokens(nil); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSessionTokens_Rejects(t *testing.T) {
	tokens := mustTokens(t, "test-secret")
	valid, _ := tokens.Issue("user-1")

	otherSecret, _ := mustTokens(t, "other-secret").Issue("user-1")

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"userId": "user-1"}).SignedString([]byte("test-secret"))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", otherSecret},
		{"tampered", tampered},
		{"other algorithm", hs512},
		{"unsigned", none},
		{"missing user id", noUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSessionTokens_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens := mustTokens(t, "test-secret", WithTokenTTL(time.Hour), WithTokenClock(clock))

	tok, _ := tokens.Issue("user-1")
	if _, err := tokens.Verify(tok); err != nil {
		t.Fatalf("Verify() fresh token error = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := tokens.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}

	// a token minted without exp is not accepted once expiry is required
	noExp, _ := mustTokens(t, "test-secret").Issue("user-1")
	if _, err := tokens.Verify(noExp); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected token without exp to be rejected, got %v", err)
	}
}

func TestSessionTokens_Issuer(t *testing.T) {
	a := mustTokens(t, "test-secret", WithIssuer("oneblog"))
	b := mustTokens(t, "test-secret", WithIssuer("elsewhere"))

	tok, _ := b.Issue("user-1")
	if _, err := a.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected issuer mismatch to be rejected, got %v", err)
	}
}

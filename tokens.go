package oneblog

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that fails verification.
// Callers cannot tell tampering from expiry, which is intentional.
var ErrInvalidToken = errors.New("invalid or expired token")

const claimUserID = "userId"

// SessionTokens issues and verifies HS256 session tokens carrying a user id
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type TokenOption func(*SessionTokens)

// WithTokenTTL makes issued tokens expire after d. With d <= 0 (the default)
// tokens carry no expiry and stay valid until the secret rotates.
func WithTokenTTL(d time.Duration) TokenOption {
	return func(t *SessionTokens) { t.ttl = d }
}

// WithIssuer stamps an iss claim and requires it on verification
func WithIssuer(issuer string) TokenOption {
	return func(t *SessionTokens) { t.issuer = issuer }
}

// WithTokenClock overrides the clock used for iat/exp
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *SessionTokens) { t.now = now }
}

func NewSessionTokens(secret []byte, opts ...TokenOption) (*SessionTokens, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session token secret must not be empty")
	}
	t := &SessionTokens{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token for the user
func (t *SessionTokens) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id required")
	}
	claims := jwt.MapClaims{claimUserID: userID}
	if t.issuer != "" {
		claims["iss"] = t.issuer
	}
	if t.ttl > 0 {
		now := t.now()
		claims["iat"] = now.Unix()
		claims["exp"] = now.Add(t.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *SessionTokens) parser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	return jwt.NewParser(opts...)
}

// Verify returns the user id embedded in a valid token, or ErrInvalidToken
func (t *SessionTokens) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	token, err := t.parser().ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	userID, ok := claims[claimUserID].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

package oneblog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

type userIDKey struct{}

// SetUserIDInContext returns a context carrying the authenticated user id
func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserIDFromContext returns the authenticated user id or ""
func GetUserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// TokenVerifier resolves a session token to a user id
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Middleware authenticates requests with a bearer token, falling back to
// the token stored in the session by a browser login.
type Middleware struct {
	Verifier TokenVerifier

	AuthTokenHeaderName string
	Session             *scs.SessionManager
	SessionTokenKey     string
}

func (m *Middleware) EnsureReasonableDefaults() {
	if m.AuthTokenHeaderName == "" {
		m.AuthTokenHeaderName = "Authorization"
	}
	if m.SessionTokenKey == "" {
		m.SessionTokenKey = DefaultSessionTokenKey
	}
}

// BearerToken extracts the token from "Bearer <token>". Any other scheme
// yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestToken returns the presented token, header first
func (m *Middleware) requestToken(r *http.Request) string {
	if token := BearerToken(r.Header.Get(m.AuthTokenHeaderName)); token != "" {
		return token
	}
	if m.Session != nil {
		return m.Session.GetString(r.Context(), m.SessionTokenKey)
	}
	return ""
}

// EnsureUser rejects requests without a valid session token and puts the
// user id into the request context for downstream handlers.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.requestToken(r)
		if token == "" {
			writeError(w, NewError(KindUnauthorized, MsgLoginRequired))
			return
		}
		userID, err := m.Verifier.Verify(token)
		if err != nil {
			slog.Debug("rejecting session token", "path", r.URL.Path, "error", err)
			writeError(w, NewError(KindUnauthorized, MsgInvalidToken))
			return
		}
		next.ServeHTTP(w, r.WithContext(SetUserIDInContext(r.Context(), userID)))
	})
}

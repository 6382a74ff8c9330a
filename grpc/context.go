// Package grpc authenticates gRPC calls with oneblog session tokens. Clients
// send the token in the "authorization" metadata key as "Bearer <token>";
// server interceptors verify it and expose the user id to handlers.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"

	ob "github.com/panyam/oneblog"
)

// DefaultMetadataKeyAuthorization is the metadata key carrying the bearer token
const DefaultMetadataKeyAuthorization = "authorization"

// UserIDFromContext returns the user id placed in ctx by the auth
// interceptors, or "" for unauthenticated calls.
func UserIDFromContext(ctx context.Context) string {
	return ob.GetUserIDFromContext(ctx)
}

// IsAuthenticated returns true if there is an authenticated user in the context.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// TokenToOutgoingContext attaches a session token to outgoing call metadata.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return TokenToOutgoingContextWithKey(ctx, token, DefaultMetadataKeyAuthorization)
}

// TokenToOutgoingContextWithKey attaches a session token under a custom key.
func TokenToOutgoingContextWithKey(ctx context.Context, token string, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, "Bearer "+token)
}

// tokenFromIncoming reads the bearer token from incoming metadata
func tokenFromIncoming(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(key) {
		if token := ob.BearerToken(v); token != "" {
			return token
		}
	}
	return ""
}

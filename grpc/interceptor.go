package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ob "github.com/panyam/oneblog"
)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Verifier resolves session tokens to user ids. Required.
	Verifier ob.TokenVerifier

	// MetadataKey is the metadata key holding the bearer token.
	// Defaults to "authorization".
	MetadataKey string

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// NewInterceptorConfig returns a config that requires auth for all methods
// except the listed ones.
func NewInterceptorConfig(verifier ob.TokenVerifier, publicMethods ...string) *InterceptorConfig {
	config := &InterceptorConfig{
		Verifier:      verifier,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
// Tokens that are present must still verify.
func OptionalAuthConfig(verifier ob.TokenVerifier) *InterceptorConfig {
	return &InterceptorConfig{
		Verifier:      verifier,
		RequireAuth:   false,
		PublicMethods: make(map[string]bool),
	}
}

func (c *InterceptorConfig) ensureDefaults() {
	if c.MetadataKey == "" {
		c.MetadataKey = DefaultMetadataKeyAuthorization
	}
	if c.PublicMethods == nil {
		c.PublicMethods = make(map[string]bool)
	}
}

// authenticate returns ctx with the caller's user id attached
func (c *InterceptorConfig) authenticate(ctx context.Context, fullMethod string) (context.Context, error) {
	token := tokenFromIncoming(ctx, c.MetadataKey)
	if token == "" {
		if c.RequireAuth && !c.PublicMethods[fullMethod] {
			return nil, status.Error(codes.Unauthenticated, ob.MsgLoginRequired)
		}
		return ctx, nil
	}

	userID, err := c.Verifier.Verify(token)
	if err != nil {
		if c.PublicMethods[fullMethod] {
			return ctx, nil
		}
		return nil, status.Error(codes.Unauthenticated, ob.MsgInvalidToken)
	}
	return ob.SetUserIDInContext(ctx, userID), nil
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies the
// caller's session token.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config.ensureDefaults()

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := config.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, StatusFromError(err)
		}
		return resp, nil
	}
}

// StreamAuthInterceptor returns a gRPC stream interceptor that verifies the
// caller's session token.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config.ensureDefaults()

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := config.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		if err := handler(srv, &authedStream{ServerStream: ss, ctx: ctx}); err != nil {
			return StatusFromError(err)
		}
		return nil
	}
}

// authedStream overrides the stream context with the authenticated one
type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context {
	return s.ctx
}

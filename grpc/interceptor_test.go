package grpc

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	ob "github.com/panyam/oneblog"
)

func newTokens(t *testing.T) *ob.SessionTokens {
	t.Helper()
	tokens, err := ob.NewSessionTokens([]byte("grpc-test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tokens
}

// incoming turns the outgoing metadata a client would send into server-side
// incoming metadata.
func incoming(ctx context.Context) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestNewInterceptorConfig(t *testing.T) {
	config := NewInterceptorConfig(nil, "/blog.Svc/Health", "/blog.Svc/Login")
	if !config.RequireAuth {
		t.Error("expected RequireAuth to be true")
	}
	if !config.PublicMethods["/blog.Svc/Health"] || !config.PublicMethods["/blog.Svc/Login"] {
		t.Error("expected listed methods to be public")
	}
	if config.PublicMethods["/blog.Svc/ListBlogs"] {
		t.Error("expected ListBlogs to not be public")
	}
}

func TestUnaryAuthInterceptor_NoToken(t *testing.T) {
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(newTokens(t)))
	info := &grpc.UnaryServerInfo{FullMethod: "/blog.Svc/ListBlogs"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Error("handler should not be called")
		return nil, nil
	})
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if st.Message() != ob.MsgLoginRequired {
		t.Errorf("message = %q", st.Message())
	}
}

func TestUnaryAuthInterceptor_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(tokens))
	token, _ := tokens.Issue("user123")

	ctx := incoming(TokenToOutgoingContext(context.Background(), token))
	info := &grpc.UnaryServerInfo{FullMethod: "/blog.Svc/ListBlogs"}

	var gotUser string
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		gotUser = UserIDFromContext(ctx)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user123" {
		t.Errorf("user id = %q, want user123", gotUser)
	}
}

func TestUnaryAuthInterceptor_TamperedToken(t *testing.T) {
	tokens := newTokens(t)
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(tokens))
	token, _ := tokens.Issue("user123")

	ctx := incoming(TokenToOutgoingContext(context.Background(), token+"x"))
	info := &grpc.UnaryServerInfo{FullMethod: "/blog.Svc/ListBlogs"}

	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		t.Error("handler should not be called")
		return nil, nil
	})
	st, _ := status.FromError(err)
	if st.Code() != codes.Unauthenticated || st.Message() != ob.MsgInvalidToken {
		t.Errorf("got %v", err)
	}
}

func TestUnaryAuthInterceptor_PublicMethod(t *testing.T) {
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(newTokens(t), "/blog.Svc/Health"))
	info := &grpc.UnaryServerInfo{FullMethod: "/blog.Svc/Health"}

	called := false
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		called = true
		if IsAuthenticated(ctx) {
			t.Error("expected anonymous context")
		}
		return nil, nil
	})
	if err != nil || !called {
		t.Errorf("public method: err=%v called=%v", err, called)
	}
}

func TestUnaryAuthInterceptor_OptionalAuth(t *testing.T) {
	tokens := newTokens(t)
	interceptor := UnaryAuthInterceptor(OptionalAuthConfig(tokens))
	info := &grpc.UnaryServerInfo{FullMethod: "/blog.Svc/ListBlogs"}

	if _, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, nil
	}); err != nil {
		t.Errorf("anonymous call rejected: %v", err)
	}

	ctx := incoming(TokenToOutgoingContext(context.Background(), "garbage"))
	if _, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, nil
	}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("bad token accepted: %v", err)
	}
}

func TestUnaryAuthInterceptor_MapsHandlerErrors(t *testing.T) {
	tokens := newTokens(t)
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(tokens))
	token, _ := tokens.Issue("user123")
	ctx := incoming(TokenToOutgoingContext(context.Background(), token))
	info := &grpc.UnaryServerInfo{FullMethod: "/blog.Svc/EditBlog"}

	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, ob.NewError(ob.KindForbidden, ob.MsgNotAuthorized)
	})
	st, _ := status.FromError(err)
	if st.Code() != codes.PermissionDenied || st.Message() != ob.MsgNotAuthorized {
		t.Errorf("got %v", err)
	}
}

type mockServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}

func TestStreamAuthInterceptor(t *testing.T) {
	tokens := newTokens(t)
	interceptor := StreamAuthInterceptor(NewInterceptorConfig(tokens))
	info := &grpc.StreamServerInfo{FullMethod: "/blog.Svc/WatchBlogs"}
	token, _ := tokens.Issue("user456")

	ss := &mockServerStream{ctx: incoming(TokenToOutgoingContext(context.Background(), token))}
	var gotUser string
	err := interceptor(nil, ss, info, func(srv any, stream grpc.ServerStream) error {
		gotUser = UserIDFromContext(stream.Context())
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user456" {
		t.Errorf("user id = %q, want user456", gotUser)
	}

	ss = &mockServerStream{ctx: context.Background()}
	err = interceptor(nil, ss, info, func(srv any, stream grpc.ServerStream) error {
		t.Error("handler should not be called")
		return nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", ob.NewError(ob.KindValidation, ob.MsgAllFieldsRequired), codes.InvalidArgument},
		{"invalid code", ob.NewError(ob.KindInvalidCode, ob.MsgInvalidOTC), codes.InvalidArgument},
		{"conflict", ob.NewError(ob.KindConflict, ob.MsgUserExists), codes.AlreadyExists},
		{"not found", ob.NewError(ob.KindNotFound, ob.MsgBlogNotFound), codes.NotFound},
		{"unknown", errors.New("disk on fire"), codes.Internal},
		{"passthrough", status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(StatusFromError(tt.err)); got != tt.code {
				t.Errorf("code = %v, want %v", got, tt.code)
			}
		})
	}
	if StatusFromError(nil) != nil {
		t.Error("nil error should stay nil")
	}
	if st, _ := status.FromError(StatusFromError(errors.New("secret detail"))); st.Message() != ob.MsgInternal {
		t.Errorf("internal message leaked: %q", st.Message())
	}
}

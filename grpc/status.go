package grpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ob "github.com/panyam/oneblog"
)

var kindCodes = map[ob.ErrorKind]codes.Code{
	ob.KindValidation:   codes.InvalidArgument,
	ob.KindInvalidCode:  codes.InvalidArgument,
	ob.KindConflict:     codes.AlreadyExists,
	ob.KindUnauthorized: codes.Unauthenticated,
	ob.KindNotFound:     codes.NotFound,
	ob.KindForbidden:    codes.PermissionDenied,
	ob.KindUpstream:     codes.Internal,
}

// StatusFromError converts a handler error into a gRPC status error. Errors
// that already carry a status pass through unchanged; anything outside the
// oneblog error taxonomy becomes Internal.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	e := ob.AsError(err)
	code, ok := kindCodes[e.Kind]
	if !ok {
		code = codes.Internal
	}
	return status.Error(code, e.Message)
}

package client

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessionkit/session"
)

// AuthInterceptor keeps Connect RPC requests authenticated: before each
// outgoing call it refreshes the managed session if needed and injects the
// bearer credential.
type AuthInterceptor struct {
	manager *session.Manager
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

// NewAuthInterceptor creates an interceptor around the given manager.
func NewAuthInterceptor(manager *session.Manager) (*AuthInterceptor, error) {
	if manager == nil {
		return nil, errors.New("session manager is required")
	}

	return &AuthInterceptor{manager: manager}, nil
}

// WrapUnary implements connect.UnaryInterceptorFunc.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if err := i.addAuthHeader(ctx, req.Header()); err != nil {
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.StreamingClientInterceptorFunc.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if err := i.addAuthHeader(ctx, conn.RequestHeader()); err != nil {
			log.Error().Err(err).Msg("failed to add auth header to streaming request")
		}
		return conn
	}
}

// WrapStreamingHandler is not used for client interceptors.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

// addAuthHeader refreshes the session when it is close to expiry and sets
// the Authorization header. Requests without a managed session go out
// unauthenticated, the service decides whether that is acceptable.
func (i *AuthInterceptor) addAuthHeader(ctx context.Context, headers interface{ Set(string, string) }) error {
	if _, err := i.manager.RefreshSessionIfNeeded(ctx); err != nil {
		return err
	}

	if header, ok := i.manager.BearerAuthorization(); ok {
		headers.Set("Authorization", header)
	}

	return nil
}

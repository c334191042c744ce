// Package interceptor holds the unary interceptors of the gRPC server.
package interceptor

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/bookbuddy/internal/auth"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
)

type Verifier interface {
	Verify(tokenString string) (*auth.Identity, error)
}

type AuthInterceptor struct {
	verifier Verifier
}

func NewAuthInterceptor(verifier Verifier) *AuthInterceptor {
	return &AuthInterceptor{verifier: verifier}
}

func (a *AuthInterceptor) identityFrom(ctx context.Context) *auth.Identity {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil
	}

	token := auth.TokenFromHeader(values[0])
	if token == "" {
		return nil
	}

	identity, err := a.verifier.Verify(token)
	if err != nil {
		logger.FromContext(ctx).Debugw("rejected bearer token", zap.Error(err))
		return nil
	}

	return identity
}

// UnaryAuthInterceptor attaches the verified identity, if any, to the
// context. Calls to protectedMethods without one fail with Unauthenticated.
func (a *AuthInterceptor) UnaryAuthInterceptor(protectedMethods []string) grpc.UnaryServerInterceptor {
	protected := make(map[string]struct{}, len(protectedMethods))
	for _, m := range protectedMethods {
		protected[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		identity := a.identityFrom(ctx)
		if identity != nil {
			ctx = auth.WithIdentity(ctx, identity)
		}

		if _, ok := protected[info.FullMethod]; ok && identity == nil {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}

		return handler(ctx, req)
	}
}

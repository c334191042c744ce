package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/bookbuddy/internal/auth"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

func TestUnaryAuthInterceptor(t *testing.T) {
	codec := auth.NewCodec([]byte("interceptor-secret"))
	token, err := codec.Issue(models.User{Username: "alice"})
	require.NoError(t, err)

	intercept := NewAuthInterceptor(codec).UnaryAuthInterceptor([]string{"/svc/Private"})

	echoIdentity := func(ctx context.Context, _ any) (any, error) {
		identity, ok := auth.IdentityFrom(ctx)
		if !ok {
			return "", nil
		}
		return identity.Username, nil
	}

	tests := []struct {
		name     string
		method   string
		header   string
		want     any
		wantCode codes.Code
	}{
		{name: "public without token", method: "/svc/Public", want: ""},
		{name: "public with token", method: "/svc/Public", header: "Bearer " + token, want: "alice"},
		{name: "private with token", method: "/svc/Private", header: "Bearer " + token, want: "alice"},
		{name: "private without token", method: "/svc/Private", wantCode: codes.Unauthenticated},
		{name: "private with bad token", method: "/svc/Private", header: "Bearer garbage", wantCode: codes.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.header != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.header))
			}

			got, err := intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, echoIdentity)
			if tt.wantCode != codes.OK {
				assert.Equal(t, tt.wantCode, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnaryLoggingInterceptorPropagatesRequestID(t *testing.T) {
	intercept := UnaryLoggingInterceptor([]string{"/svc/Logged"})
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-42"))

	got, err := intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Logged"}, func(ctx context.Context, _ any) (any, error) {
		return logger.RequestIDFrom(ctx), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", got)

	got, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Logged"}, func(ctx context.Context, _ any) (any, error) {
		return logger.RequestIDFrom(ctx), nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

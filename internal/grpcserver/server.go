package grpcserver

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/bookbuddy/internal/grpcserver/interceptor"
)

// NewServer builds a grpc.Server with the auth and logging interceptors and
// the service registered.
func NewServer(handler BookBuddyServer, verifier interceptor.Verifier) *grpc.Server {
	authInterceptor := interceptor.NewAuthInterceptor(verifier)

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor(AllMethods),
			authInterceptor.UnaryAuthInterceptor(LoggedInMethods),
		),
	)
	server.RegisterService(&ServiceDesc, handler)

	return server
}

// NewGRPCServer is NewServer plus a listener bound to address.
func NewGRPCServer(
	address string,
	handler BookBuddyServer,
	verifier interceptor.Verifier,
) (*grpc.Server, net.Listener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("in internal/grpcserver/server.go/NewGRPCServer(): error while `net.Listen()` calling: %w", err)
	}

	return NewServer(handler, verifier), listener, nil
}

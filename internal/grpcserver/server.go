// Package grpcserver serves the todo tracker over gRPC. Messages travel as
// JSON through a registered codec, so the service description is written by
// hand instead of generated.
package grpcserver

import (
	"net"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/todotracker/internal/grpcserver/interceptor"
)

type tokenVerifier interface {
	Verify(tokenString string) (string, error)
}

func NewGRPCServer(
	addr string,
	handler TodoServiceServer,
	verifier tokenVerifier,
) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	authInterceptor := interceptor.NewAuthInterceptor(verifier)

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor(),
			authInterceptor.UnaryAuthInterceptor(PublicMethods),
		),
	)
	server.RegisterService(&TodoServiceDesc, handler)

	return server, lis, nil
}

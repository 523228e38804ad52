package interceptor

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/todotracker/internal/auth"
	"github.com/patric-chuzhbe/todotracker/internal/logger"
)

const bearerPrefix = "Bearer "

type tokenVerifier interface {
	Verify(tokenString string) (string, error)
}

type AuthInterceptor struct {
	verifier tokenVerifier
}

func NewAuthInterceptor(verifier tokenVerifier) *AuthInterceptor {
	return &AuthInterceptor{verifier: verifier}
}

// UnaryAuthInterceptor requires a valid session token in the "authorization"
// metadata for every method except publicMethods, and attaches the user ID to
// the context.
func (a *AuthInterceptor) UnaryAuthInterceptor(publicMethods []string) grpc.UnaryServerInterceptor {
	public := make(map[string]struct{}, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if _, ok := public[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		userID, err := a.verifier.Verify(tokenFromMetadata(ctx))
		if err != nil {
			logger.Log.Debugln("rejecting unauthenticated gRPC call", "method", info.FullMethod, zap.Error(err))
			return nil, status.Error(codes.Unauthenticated, "Unauthorized")
		}

		return handler(context.WithValue(ctx, auth.UserIDKey, userID), req)
	}
}

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(values[0], bearerPrefix))
}

package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/todotracker/internal/logger"
)

// UnaryLoggingInterceptor logs every unary call with its method, duration and status code.
// Requests and replies are not logged since they carry passwords and tokens.
func UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		start := time.Now()

		resp, err = handler(ctx, req)

		st, _ := status.FromError(err)
		fields := []interface{}{
			"method", info.FullMethod,
			"duration", time.Since(start),
			"code", st.Code().String(),
		}
		if st.Code() == codes.Internal {
			logger.Log.Warnln(append([]interface{}{"gRPC request failed"}, fields...)...)
			return resp, err
		}
		logger.Log.Infoln(append([]interface{}{"gRPC request"}, fields...)...)

		return resp, err
	}
}

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/startflow/proxy"
)

// Recover returns advice that turns a panic further down the chain into an
// error, logged with its stack trace.
func Recover(logger *slog.Logger) proxy.Interceptor {
	return func(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (res any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				method := callName(inv)
				logger.Error("proxied call panicked",
					slog.String("method", method),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				res, retErr = nil, fmt.Errorf("panic in %s: %v", method, r)
			}
		}()
		return next(ctx, inv)
	}
}

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/startflow/proxy"
)

// Timeout returns advice that bounds each call with d. A non-positive d
// disables the deadline. Installed as outer advice
// (engine.WithOuterInterceptor) the deadline also bounds the process the
// call starts; otherwise only the target method sees it.
func Timeout(d time.Duration, logger *slog.Logger) proxy.Interceptor {
	return func(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (any, error) {
		if d <= 0 {
			return next(ctx, inv)
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
			return next(ctx, inv)
		}
		logger.Debug("call timeout set",
			slog.String("method", callName(inv)),
			slog.Duration("timeout", d),
		)
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx, inv)
	}
}

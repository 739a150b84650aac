package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/scope"
)

// Logging returns advice that logs each call and its outcome.
func Logging(logger *slog.Logger) proxy.Interceptor {
	return func(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (any, error) {
		method := callName(inv)
		logger.LogAttrs(ctx, slog.LevelDebug, "call started",
			append(scope.LogAttrs(ctx), slog.String("method", method))...,
		)

		start := time.Now()
		res, err := next(ctx, inv)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("call failed",
				slog.String("method", method),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("call completed",
				slog.String("method", method),
				slog.Duration("elapsed", elapsed),
			)
		}

		return res, err
	}
}

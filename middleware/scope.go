package middleware

import (
	"context"

	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/scope"
)

// Scope returns advice that gives calls arriving without a Forge scope the
// given app and org scope, so processes they start are attributed to it.
// Calls that already carry a scope are left alone. Install it as outer
// advice (engine.WithOuterInterceptor); inside the process-start advice
// only the target method would see the scope.
func Scope(appID, orgID string) proxy.Interceptor {
	return func(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (any, error) {
		if a, o := scope.Capture(ctx); a == "" && o == "" {
			ctx = scope.Restore(ctx, appID, orgID)
		}
		return next(ctx, inv)
	}
}

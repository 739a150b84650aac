package middleware

import (
	"github.com/xraph/startflow/matcher"
	"github.com/xraph/startflow/proxy"
)

// callName returns "<Type>.<Method>" for inv.
func callName(inv *proxy.Invocation) string {
	return matcher.TypeName(inv.TargetType) + "." + inv.Method.Name
}

// Advisors turns interceptors into advisors applied to every method, in
// order, for proxies built outside the installer.
func Advisors(ics ...proxy.Interceptor) []proxy.Advisor {
	out := make([]proxy.Advisor, 0, len(ics))
	for _, ic := range ics {
		out = append(out, proxy.NewAdvisor(nil, ic))
	}
	return out
}

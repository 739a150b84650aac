package proxy

import "reflect"

// Pointcut selects the methods an advisor applies to. It is consulted on
// every call.
type Pointcut interface {
	Matches(t reflect.Type, method string) bool
}

// PointcutFunc adapts a plain function to a Pointcut.
type PointcutFunc func(t reflect.Type, method string) bool

// Matches implements Pointcut.
func (f PointcutFunc) Matches(t reflect.Type, method string) bool { return f(t, method) }

// MatchAll is a Pointcut matching every method.
var MatchAll Pointcut = PointcutFunc(func(reflect.Type, string) bool { return true })

// Advisor pairs a Pointcut with the Interceptor to run where it matches.
type Advisor interface {
	Pointcut() Pointcut
	Interceptor() Interceptor
}

type advisor struct {
	pointcut    Pointcut
	interceptor Interceptor
}

func (a *advisor) Pointcut() Pointcut       { return a.pointcut }
func (a *advisor) Interceptor() Interceptor { return a.interceptor }

// NewAdvisor returns an Advisor. A nil pointcut matches every method.
func NewAdvisor(pc Pointcut, ic Interceptor) Advisor {
	if pc == nil {
		pc = MatchAll
	}
	return &advisor{pointcut: pc, interceptor: ic}
}

// Advised is implemented by objects that are already proxies and accept
// further advisors. The installer appends to these instead of wrapping
// them again.
type Advised interface {
	AddAdvisor(pos int, a Advisor)
	Advisors() []Advisor
	Target() any
	TargetType() reflect.Type
}

// Infrastructure marks objects belonging to the interception machinery.
// They are never proxied.
type Infrastructure interface {
	InfrastructureObject()
}

// TargetType returns the concrete type behind obj, unwrapping proxies.
func TargetType(obj any) reflect.Type {
	if a, ok := obj.(Advised); ok {
		return a.TargetType()
	}
	return reflect.TypeOf(obj)
}

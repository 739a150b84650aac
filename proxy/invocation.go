package proxy

import (
	"context"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Invocation describes one call flowing through a proxy.
type Invocation struct {
	Proxy      *Proxy
	Target     any
	TargetType reflect.Type
	Method     reflect.Method

	// Args are the caller's arguments, excluding a leading context.Context.
	Args []any
}

// ResultType returns the method's declared non-error result type, or nil
// when it has none.
func (inv *Invocation) ResultType() reflect.Type {
	ft := inv.Method.Type
	for i := 0; i < ft.NumOut(); i++ {
		if out := ft.Out(i); out != errorType {
			return out
		}
	}
	return nil
}

// NumParams returns the number of declared parameters, excluding the
// receiver and a leading context.Context.
func (inv *Invocation) NumParams() int {
	ft := inv.Method.Type
	n := ft.NumIn() - 1
	if n > 0 && ft.In(1) == contextType {
		n--
	}
	return n
}

// IsVariadic reports whether the last parameter is variadic.
func (inv *Invocation) IsVariadic() bool { return inv.Method.Type.IsVariadic() }

// Handler runs the remainder of an invocation.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Interceptor wraps a Handler with cross-cutting logic. It MUST call next
// to continue the chain unless it deliberately short-circuits.
type Interceptor func(ctx context.Context, inv *Invocation, next Handler) (any, error)

// Chain composes interceptors into one. The first interceptor in the list
// is the outermost wrapper.
//
// Example: Chain(logging, recover, start) executes as:
//
//	logging → recover → start → target method
func Chain(ics ...Interceptor) Interceptor {
	return func(ctx context.Context, inv *Invocation, next Handler) (any, error) {
		h := next
		for i := len(ics) - 1; i >= 0; i-- {
			ic := ics[i]
			prev := h
			h = func(ctx context.Context, inv *Invocation) (any, error) {
				return ic(ctx, inv, prev)
			}
		}
		return h(ctx, inv)
	}
}

// IsNil reports whether v is nil or a typed nil (pointer, map, slice,
// func, chan or interface).
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

package proxy

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/xraph/startflow"
)

// invokeTarget is the terminal Handler: it calls the real method.
func invokeTarget(ctx context.Context, inv *Invocation) (any, error) {
	fn := reflect.ValueOf(inv.Target).Method(inv.Method.Index)
	ft := fn.Type()

	if err := checkResults(ft); err != nil {
		return nil, fmt.Errorf("%w: %s.%s", err, inv.TargetType, inv.Method.Name)
	}

	in, err := buildArgs(ctx, ft, inv.Args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", inv.TargetType, inv.Method.Name, err)
	}

	return splitResults(fn.Call(in))
}

func checkResults(ft reflect.Type) error {
	values := 0
	for i := 0; i < ft.NumOut(); i++ {
		out := ft.Out(i)
		if out == errorType {
			if i != ft.NumOut()-1 {
				return startflow.ErrUnsupportedSignature
			}
			continue
		}
		values++
	}
	if values > 1 {
		return startflow.ErrUnsupportedSignature
	}
	return nil
}

func buildArgs(ctx context.Context, ft reflect.Type, args []any) ([]reflect.Value, error) {
	offset := 0
	in := make([]reflect.Value, 0, ft.NumIn())
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	fixed := ft.NumIn() - offset
	if ft.IsVariadic() {
		if len(args) < fixed-1 {
			return nil, fmt.Errorf("%w: want at least %d, got %d", startflow.ErrArgCount, fixed-1, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d, got %d", startflow.ErrArgCount, fixed, len(args))
	}

	for i, a := range args {
		pt := paramType(ft, offset+i)
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, v)
	}
	return in, nil
}

func paramType(ft reflect.Type, idx int) reflect.Type {
	last := ft.NumIn() - 1
	if ft.IsVariadic() && idx >= last {
		return ft.In(last).Elem()
	}
	return ft.In(idx)
}

func convertArg(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch pt.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", startflow.ErrArgType, pt)
	}

	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(pt.Kind()) {
		out, ok := convertNumeric(v, pt)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s %v does not fit %s", startflow.ErrArgType, v.Type(), a, pt)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s for %s", startflow.ErrArgType, v.Type(), pt)
}

// convertNumeric converts v to pt only when the value survives: no
// overflow, no sign flip and no dropped fraction. Narrowing a float to
// float32 may round.
func convertNumeric(v reflect.Value, pt reflect.Type) (reflect.Value, bool) {
	out := reflect.New(pt).Elem()
	switch {
	case v.CanInt():
		i := v.Int()
		switch {
		case out.CanInt():
			if out.OverflowInt(i) {
				return reflect.Value{}, false
			}
			out.SetInt(i)
		case out.CanUint():
			if i < 0 || out.OverflowUint(uint64(i)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(i))
		default:
			f := float64(i)
			if f >= 1<<63 || int64(f) != i || !setExactFloat(out, f) {
				return reflect.Value{}, false
			}
		}
	case v.CanUint():
		u := v.Uint()
		switch {
		case out.CanInt():
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(u))
		case out.CanUint():
			if out.OverflowUint(u) {
				return reflect.Value{}, false
			}
			out.SetUint(u)
		default:
			f := float64(u)
			if f >= 1<<64 || uint64(f) != u || !setExactFloat(out, f) {
				return reflect.Value{}, false
			}
		}
	default:
		f := v.Float()
		switch {
		case out.CanInt():
			if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 || out.OverflowInt(int64(f)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(f))
		case out.CanUint():
			if f != math.Trunc(f) || f < 0 || f >= 1<<64 || out.OverflowUint(uint64(f)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(f))
		default:
			if out.OverflowFloat(f) {
				return reflect.Value{}, false
			}
			out.SetFloat(f)
		}
	}
	return out, true
}

// setExactFloat stores an integral f in out, refusing values float32
// cannot hold exactly.
func setExactFloat(out reflect.Value, f float64) bool {
	if out.Kind() == reflect.Float32 && float64(float32(f)) != f {
		return false
	}
	out.SetFloat(f)
	return true
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func splitResults(outs []reflect.Value) (any, error) {
	var (
		result any
		err    error
	)
	for _, out := range outs {
		if out.Type() == errorType {
			if !out.IsNil() {
				err = out.Interface().(error)
			}
			continue
		}
		result = out.Interface()
	}
	return result, err
}

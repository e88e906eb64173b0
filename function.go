package promisify

import (
	"fmt"
	"reflect"
	"time"
)

// WrappedFunc is the result of converting a callable: it accepts the
// callable's logical parameters (minus the trailing completion callback,
// and minus any leading [Binding] parameter, which is injected) and returns
// a [Promise] of the callback-supplied value.
//
// A WrappedFunc never panics and never fails synchronously; every failure,
// including malformed arguments, surfaces through the returned promise.
type WrappedFunc func(args ...Result) Promise

var bindingType = reflect.TypeOf(Binding{})

// checkCallable validates the callable convention: a non-variadic func whose
// final parameter is the completion callback.
func checkCallable(target any, fn reflect.Value) error {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return &InvalidTargetError{Target: target}
	}
	t := fn.Type()
	if t.IsVariadic() || t.NumIn() == 0 || t.In(t.NumIn()-1).Kind() != reflect.Func {
		return &InvalidTargetError{Target: target}
	}
	return nil
}

// Function wraps a single callable into a [WrappedFunc].
//
// The target must be a non-variadic func whose final parameter is itself a
// func: the completion callback. Invoking the wrapper calls the target with
// the supplied arguments plus a generated completion callback, and returns a
// promise settled by that callback per the configured [CallbackStyle], or
// rejected with a [*TimeoutError] if the configured countdown elapses first.
//
// With caching enabled (the default), converting the same target again under
// structurally identical options returns the identical wrapper.
func (c *Converter) Function(target any, opts ...Option) (WrappedFunc, error) {
	fn := reflect.ValueOf(target)
	if err := checkCallable(target, fn); err != nil {
		return nil, err
	}
	o, err := c.resolve(target, opts)
	if err != nil {
		return nil, err
	}
	return c.function(target, fn, o, targetKey(fn))
}

// function converts with pre-normalized options under an explicit cache key;
// shared by [Converter.Function] and [ObjectView] property access, which key
// method values by owner and name rather than by the shared method stub.
func (c *Converter) function(target any, fn reflect.Value, o options, key cacheKey) (WrappedFunc, error) {
	if err := checkCallable(target, fn); err != nil {
		return nil, err
	}
	if o.cache {
		if w, ok := c.cache.get(key, o); ok {
			if wf, ok := w.(WrappedFunc); ok {
				c.logCacheHit("function", o)
				return wf, nil
			}
		}
	}
	wf := c.wrapFunction(fn, o, key)
	if o.cache {
		c.cache.put(key, wf, o)
	}
	c.logConverted("function", o)
	return wf, nil
}

func (c *Converter) wrapFunction(fn reflect.Value, o options, key cacheKey) WrappedFunc {
	t := fn.Type()
	numIn := t.NumIn()
	cbType := t.In(numIn - 1)
	injectBind := numIn >= 2 && t.In(0) == bindingType
	userArgs := numIn - 1
	if injectBind {
		userArgs--
	}

	return func(args ...Result) Promise {
		d := c.factory()
		p := d.Promise()

		if len(args) != userArgs {
			d.Reject(&TypeError{Message: fmt.Sprintf(
				"promisify: wrapped call expects %d arguments, got %d", userArgs, len(args))})
			return p
		}

		in := make([]reflect.Value, 0, numIn)
		if injectBind {
			in = append(in, reflect.ValueOf(Binding{Value: o.bind}))
		}
		for _, a := range args {
			av, err := conformValue(a, t.In(len(in)))
			if err != nil {
				d.Reject(err)
				return p
			}
			in = append(in, av)
		}

		var timer *time.Timer
		cb := reflect.MakeFunc(cbType, func(results []reflect.Value) []reflect.Value {
			if timer != nil {
				timer.Stop()
			}
			wasSettled := p.State() != Pending
			c.settle(d, o.style, callbackResults(cbType, results))
			if wasSettled {
				c.warnLateCompletion(key)
			}
			return zeroValues(cbType)
		})
		in = append(in, cb)

		// Armed before invoking so the callback observes the timer even when
		// the target completes synchronously or on another goroutine. A
		// timeout firing concurrently with completion is harmless: the
		// deferred settles once and the loser is discarded.
		if o.timeout > 0 {
			timer = time.AfterFunc(o.timeout, func() {
				d.Reject(&TimeoutError{Timeout: o.timeout, Configured: o.rawTimeout})
				c.logTimeout(key, o)
			})
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					if timer != nil {
						timer.Stop()
					}
					d.Reject(PanicError{Value: r})
				}
			}()
			fn.Call(in)
		}()

		return p
	}
}

// settle interprets the completion callback's arguments per the configured
// convention and settles the deferred result.
func (c *Converter) settle(d Deferred, style CallbackStyle, results []Result) {
	if style == ResultOnly {
		d.Resolve(results)
		return
	}

	// errFirst: a non-nil first argument is authoritative.
	if len(results) > 0 && !valueIsNil(results[0]) {
		d.Reject(asCallbackError(results[0]))
		return
	}
	var rest []Result
	if len(results) > 0 {
		rest = results[1:]
	}
	switch len(rest) {
	case 0:
		d.Resolve(nil)
	case 1:
		d.Resolve(rest[0])
	default:
		d.Resolve(append([]Result(nil), rest...))
	}
}

// callbackResults flattens the reflect values of a callback invocation,
// expanding a variadic final parameter.
func callbackResults(cbType reflect.Type, results []reflect.Value) []Result {
	rs := make([]Result, 0, len(results))
	for i, rv := range results {
		if cbType.IsVariadic() && i == len(results)-1 {
			for j := 0; j < rv.Len(); j++ {
				rs = append(rs, rv.Index(j).Interface())
			}
			break
		}
		rs = append(rs, rv.Interface())
	}
	return rs
}

func zeroValues(t reflect.Type) []reflect.Value {
	if t.NumOut() == 0 {
		return nil
	}
	out := make([]reflect.Value, t.NumOut())
	for i := range out {
		out[i] = reflect.Zero(t.Out(i))
	}
	return out
}

// valueIsNil reports whether v is nil or a nil value of a nilable kind,
// covering typed-nil errors passed through an interface.
func valueIsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// asCallbackError passes error values through verbatim and wraps anything
// else in a [*CallbackError].
func asCallbackError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &CallbackError{Value: v}
}

// conformValue adapts a dynamically-typed argument to the target parameter
// type.
func conformValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &TypeError{Message: fmt.Sprintf("promisify: nil is not assignable to %s", t)}
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	return reflect.Value{}, &TypeError{Message: fmt.Sprintf(
		"promisify: argument of type %T is not assignable to %s", v, t)}
}

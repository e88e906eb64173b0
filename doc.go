// Package promisify converts callback-accepting functions, and the
// function-valued entries of objects, into functions that return a deferred
// result ([Promise]), with configurable timeout, binding, callback-argument
// convention, and memoization of the conversion itself.
//
// # Architecture
//
// The package is built around a [Converter] that dispatches on the shape of
// the conversion target: a callable (a non-variadic func whose final
// parameter is its completion callback) is wrapped by
// [Converter.Function] into a [WrappedFunc] returning a [Promise], while a
// convertible object (a string-keyed map, or a pointer to struct) is wrapped
// by [Converter.Object] into an [ObjectView] whose function-valued entries
// are routed through the function converter on access. [Converter.Convert]
// is the single entry point that performs the dispatch.
//
// Conversions are memoized in a [Cache] keyed by target identity and the
// effective options; converting the same target twice with structurally
// identical options returns the same wrapper.
//
// # Callback Conventions
//
// Two completion-callback conventions are supported:
//   - [ErrFirst] (the default): the first callback argument is an
//     error-or-nil; the remaining arguments are the result.
//   - [ResultOnly]: every callback argument is part of the result and no
//     error interpretation is performed.
//
// # Timeouts
//
// A nonzero timeout races the completion callback against a countdown;
// whichever settles the promise first wins, and the loser is a no-op. A
// timeout rejects the promise with a [*TimeoutError] carrying both the
// resolved duration and the originally configured value.
//
// # Binding
//
// There is no dynamic invocation context in Go. A callable that wants the
// configured bind value declares [Binding] as its first parameter; the
// converter injects it automatically. The [Self] sentinel resolves the bind
// to the conversion target itself: the target function for function
// conversion, or the source object (never the individual entry) for object
// conversion.
//
// # Deferred Results
//
// The deferred-result implementation is pluggable: [New] accepts a
// [DeferredFactory], so the converter can settle results through any
// promise-like type that implements [Deferred]. The built-in implementation
// settles exactly once and silently discards late settlement attempts.
//
// # Usage
//
//	lookup := func(host string, cb func(err error, addr string)) {
//	    go func() { cb(nil, "93.184.216.34") }()
//	}
//
//	wrapped, err := promisify.Function(lookup, promisify.WithTimeout("2s"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	addr, err := promisify.Await[string](context.Background(), wrapped("example.com"))
//
// # Error Types
//
// The package provides typed errors, all matchable with [errors.As]:
//   - [InvalidTargetError]: the target is neither a callable nor a
//     convertible object (returned synchronously, never via the promise)
//   - [TimeoutError]: the countdown elapsed before completion (also matches
//     [context.DeadlineExceeded] via [errors.Is])
//   - [CallbackError]: a non-error value rejected under the errFirst
//     convention, preserved verbatim
//   - [TypeError]: malformed wrapper-call arguments or timeout values
//   - [PanicError]: wraps a panic recovered from the target
package promisify

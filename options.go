package promisify

import (
	"fmt"
	"time"
)

// CallbackStyle selects how the arguments of a completion callback are
// interpreted when settling the deferred result.
type CallbackStyle int

const (
	// StyleDefault defers to the converter's configured default, which is
	// [ErrFirst] unless overridden via [WithDefaults].
	StyleDefault CallbackStyle = iota

	// ErrFirst treats the first callback argument as an error-or-nil and the
	// remaining arguments as the result.
	ErrFirst

	// ResultOnly treats every callback argument as part of the result, with
	// no error interpretation.
	ResultOnly
)

// String returns the conventional name of the style.
func (s CallbackStyle) String() string {
	switch s {
	case StyleDefault:
		return "default"
	case ErrFirst:
		return "errFirst"
	case ResultOnly:
		return "resultOnly"
	default:
		return fmt.Sprintf("CallbackStyle(%d)", int(s))
	}
}

// CacheMode is the tri-state memoization setting of an [Options] record.
type CacheMode int

const (
	// CacheDefault defers to the converter's configured default, which is
	// enabled unless overridden via [WithDefaults].
	CacheDefault CacheMode = iota

	// CacheEnabled memoizes the conversion.
	CacheEnabled

	// CacheDisabled bypasses the conversion cache entirely.
	CacheDisabled
)

// SelfBind is the type of the [Self] sentinel.
type SelfBind struct{}

// Self is the bind sentinel. A bind of Self resolves to the conversion
// target itself: the target function for function conversion, or the source
// object for object conversion. It is the default bind.
var Self SelfBind

// Binding carries the resolved bind value into a callable that declares it
// as its first parameter. Callables without a leading Binding parameter
// ignore the bind operationally (it still participates in cache keying).
//
//	target := func(b promisify.Binding, x int, cb func(err error, y int)) { ... }
type Binding struct {
	Value any
}

// options is the canonical, fully-populated configuration of a single
// conversion. Every field is set after normalization.
type options struct {
	rawTimeout any
	bind       any
	timeout    time.Duration
	style      CallbackStyle
	cache      bool
}

func defaultOptions() options {
	return options{
		bind:  Self,
		style: ErrFirst,
		cache: true,
	}
}

// Option configures a single conversion. See [WithTimeout], [WithBind],
// [WithCallbackStyle], [WithCache], and [WithOptions].
type Option interface {
	applyOption(*options) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyOptionFunc func(*options) error
}

func (x *optionImpl) applyOption(o *options) error {
	return x.applyOptionFunc(o)
}

// WithTimeout sets the completion timeout. The value is normalized by
// [ParseTimeout]: a [time.Duration], a number of milliseconds, or a duration
// string such as "2s". Zero (the default) means no timeout.
func WithTimeout(v any) Option {
	return &optionImpl{func(o *options) error {
		d, err := ParseTimeout(v)
		if err != nil {
			return err
		}
		o.timeout = d
		o.rawTimeout = v
		return nil
	}}
}

// WithBind sets the bind value injected into callables that declare a
// leading [Binding] parameter. Pass [Self] (the default) to bind the
// conversion target itself.
func WithBind(v any) Option {
	return &optionImpl{func(o *options) error {
		o.bind = v
		return nil
	}}
}

// WithCallbackStyle sets the completion-callback convention, either
// [ErrFirst] or [ResultOnly].
func WithCallbackStyle(s CallbackStyle) Option {
	return &optionImpl{func(o *options) error {
		switch s {
		case ErrFirst, ResultOnly:
			o.style = s
		default:
			return &TypeError{Message: fmt.Sprintf("promisify: invalid callback style %v", s)}
		}
		return nil
	}}
}

// WithCache sets whether this conversion is memoized. Enabled by default.
func WithCache(enabled bool) Option {
	return &optionImpl{func(o *options) error {
		o.cache = enabled
		return nil
	}}
}

// Options is a declarative record of conversion settings. Zero-valued fields
// are treated as unspecified and leave the current setting untouched, so a
// record can be overlaid on top of other options via [WithOptions].
type Options struct {
	// Timeout is a [ParseTimeout]-normalizable value; nil means unspecified.
	Timeout any
	// Bind is the bind value; nil means unspecified (use [Self] explicitly
	// to rebind to the target).
	Bind any
	// Style is the callback convention; [StyleDefault] means unspecified.
	Style CallbackStyle
	// Cache is the memoization mode; [CacheDefault] means unspecified.
	Cache CacheMode
}

// WithOptions overlays every specified field of the record. Options are
// applied in order, so a trailing WithOptions wins over earlier settings.
func WithOptions(rec Options) Option {
	return &optionImpl{func(o *options) error {
		if rec.Timeout != nil {
			d, err := ParseTimeout(rec.Timeout)
			if err != nil {
				return err
			}
			o.timeout = d
			o.rawTimeout = rec.Timeout
		}
		if rec.Bind != nil {
			o.bind = rec.Bind
		}
		switch rec.Style {
		case StyleDefault:
		case ErrFirst, ResultOnly:
			o.style = rec.Style
		default:
			return &TypeError{Message: fmt.Sprintf("promisify: invalid callback style %v", rec.Style)}
		}
		switch rec.Cache {
		case CacheDefault:
		case CacheEnabled:
			o.cache = true
		case CacheDisabled:
			o.cache = false
		default:
			return &TypeError{Message: fmt.Sprintf("promisify: invalid cache mode %d", int(rec.Cache))}
		}
		return nil
	}}
}

// resolveOptions applies Option instances on top of the given defaults.
func resolveOptions(defaults options, opts []Option) (options, error) {
	cfg := defaults
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyOption(&cfg); err != nil {
			return options{}, err
		}
	}
	return cfg, nil
}

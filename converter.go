package promisify

import (
	"fmt"
	"reflect"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Converter dispatches conversion targets to the function or object
// converter, consulting its [Cache] first. Independently configured
// converters (own defaults, own deferred-result implementation, own cache)
// are created with [New]; the package-level [Convert], [Function], and
// [Object] use a shared default converter backed by [DefaultCache].
type Converter struct {
	factory     DeferredFactory
	cache       *Cache
	logger      *logiface.Logger[logiface.Event]
	warnLimiter *catrate.Limiter
	defaults    options
}

// converterConfig holds configuration options for Converter creation.
type converterConfig struct {
	factory   DeferredFactory
	cache     *Cache
	logger    *logiface.Logger[logiface.Event]
	warnRates map[time.Duration]int
	defaults  []Option
	capacity  int
}

// ConverterOption configures a [Converter] instance.
type ConverterOption interface {
	applyConverter(*converterConfig) error
}

// converterOptionImpl implements ConverterOption.
type converterOptionImpl struct {
	applyConverterFunc func(*converterConfig) error
}

func (x *converterOptionImpl) applyConverter(cfg *converterConfig) error {
	return x.applyConverterFunc(cfg)
}

// WithDeferredFactory sets the deferred-result implementation used by every
// conversion of this converter. Defaults to [NewDeferred].
func WithDeferredFactory(factory DeferredFactory) ConverterOption {
	return &converterOptionImpl{func(cfg *converterConfig) error {
		if factory == nil {
			return &TypeError{Message: "promisify: nil deferred factory"}
		}
		cfg.factory = factory
		return nil
	}}
}

// WithDefaults sets the converter's default conversion options, overlaid by
// per-call options.
func WithDefaults(opts ...Option) ConverterOption {
	return &converterOptionImpl{func(cfg *converterConfig) error {
		cfg.defaults = append(cfg.defaults, opts...)
		return nil
	}}
}

// WithCacheCapacity bounds the converter's private cache. Ignored when
// [WithSharedCache] is also given.
func WithCacheCapacity(capacity int) ConverterOption {
	return &converterOptionImpl{func(cfg *converterConfig) error {
		if capacity <= 0 {
			return &TypeError{Message: fmt.Sprintf("promisify: invalid cache capacity %d", capacity)}
		}
		cfg.capacity = capacity
		return nil
	}}
}

// WithSharedCache makes the converter memoize into an existing cache, e.g.
// [DefaultCache].
func WithSharedCache(cache *Cache) ConverterOption {
	return &converterOptionImpl{func(cfg *converterConfig) error {
		if cache == nil {
			return &TypeError{Message: "promisify: nil cache"}
		}
		cfg.cache = cache
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger (the default)
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) ConverterOption {
	return &converterOptionImpl{func(cfg *converterConfig) error {
		cfg.logger = logger
		return nil
	}}
}

// WithLateCompletionWarningRates configures the rate limit applied, per
// target, to warnings about completion callbacks that fire after the
// promise already settled (e.g. after a timeout). An empty map disables the
// warnings entirely. Rates follow [catrate.NewLimiter] semantics.
func WithLateCompletionWarningRates(rates map[time.Duration]int) ConverterOption {
	return &converterOptionImpl{func(cfg *converterConfig) error {
		cfg.warnRates = rates
		return nil
	}}
}

// New creates a [*Converter].
func New(opts ...ConverterOption) (*Converter, error) {
	cfg := &converterConfig{
		capacity: DefaultCacheCapacity,
		warnRates: map[time.Duration]int{
			time.Minute: 8,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyConverter(cfg); err != nil {
			return nil, err
		}
	}

	defaults, err := resolveOptions(defaultOptions(), cfg.defaults)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		factory:  cfg.factory,
		cache:    cfg.cache,
		logger:   cfg.logger,
		defaults: defaults,
	}
	if c.factory == nil {
		c.factory = NewDeferred
	}
	if c.cache == nil {
		c.cache = NewCache(cfg.capacity)
	}
	if len(cfg.warnRates) != 0 {
		c.warnLimiter = catrate.NewLimiter(cfg.warnRates)
	}
	return c, nil
}

// Convert is the dispatch facade: a callable target is routed to
// [Converter.Function], a convertible object to [Converter.Object], and
// anything else fails synchronously with a [*InvalidTargetError]. The
// returned value is a [WrappedFunc] or an [*ObjectView] accordingly.
func (c *Converter) Convert(target any, opts ...Option) (any, error) {
	v := reflect.ValueOf(target)
	switch {
	case v.IsValid() && v.Kind() == reflect.Func && !v.IsNil():
		return c.Function(target, opts...)
	case isConvertibleObject(v):
		return c.Object(target, opts...)
	}
	return nil, &InvalidTargetError{Target: target}
}

// Cache returns the converter's conversion cache.
func (c *Converter) Cache() *Cache { return c.cache }

// resolve normalizes per-call options on top of the converter defaults and
// resolves the [Self] sentinel against the conversion target. The result
// always has every field populated.
func (c *Converter) resolve(target any, opts []Option) (options, error) {
	o, err := resolveOptions(c.defaults, opts)
	if err != nil {
		return options{}, err
	}
	if _, ok := o.bind.(SelfBind); ok {
		o.bind = target
	}
	return o, nil
}

func (c *Converter) logConverted(kind string, o options) {
	if b := c.logger.Debug(); b.Enabled() {
		b.Str("kind", kind).
			Dur("timeout", o.timeout).
			Stringer("style", o.style).
			Bool("cache", o.cache).
			Log("target converted")
	}
}

func (c *Converter) logCacheHit(kind string, o options) {
	if b := c.logger.Debug(); b.Enabled() {
		b.Str("kind", kind).
			Dur("timeout", o.timeout).
			Stringer("style", o.style).
			Log("conversion cache hit")
	}
}

func (c *Converter) logTimeout(key cacheKey, o options) {
	if b := c.logger.Debug(); b.Enabled() {
		b.Stringer("target", key).
			Dur("timeout", o.timeout).
			Log("conversion timed out")
	}
}

// warnLateCompletion logs a completion callback that fired after the
// promise already settled, rate limited per target.
func (c *Converter) warnLateCompletion(key cacheKey) {
	if c.warnLimiter == nil {
		return
	}
	if _, ok := c.warnLimiter.Allow(key); !ok {
		return
	}
	if b := c.logger.Warning(); b.Enabled() {
		b.Stringer("target", key).
			Log("completion after settlement discarded")
	}
}

// DefaultCache is the process-wide conversion cache used by the default
// converter.
var DefaultCache = NewCache(DefaultCacheCapacity)

var defaultConverter = func() *Converter {
	c, err := New(WithSharedCache(DefaultCache))
	if err != nil {
		panic(err)
	}
	return c
}()

// Default returns the package-level converter backing [Convert],
// [Function], and [Object].
func Default() *Converter { return defaultConverter }

// Convert dispatches via the default converter. See [Converter.Convert].
func Convert(target any, opts ...Option) (any, error) {
	return defaultConverter.Convert(target, opts...)
}

// Function wraps a callable via the default converter. See
// [Converter.Function].
func Function(target any, opts ...Option) (WrappedFunc, error) {
	return defaultConverter.Function(target, opts...)
}

// Object wraps a convertible object via the default converter. See
// [Converter.Object].
func Object(target any, opts ...Option) (*ObjectView, error) {
	return defaultConverter.Object(target, opts...)
}

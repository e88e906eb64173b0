package promisify

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrUnknownProperty indicates an [ObjectView] access naming a property the
// underlying struct does not have. Map-backed views return nil for missing
// keys instead.
var ErrUnknownProperty = errors.New("promisify: unknown property")

// ObjectView is a transparent view over a convertible object: a string-keyed
// map or a pointer to struct. Reading an entry that holds a callable routes
// it through the function converter (with the view's options, bind resolved
// to the source object); any other value passes through unchanged; writes go
// through to the underlying object.
//
// Entries are converted per access; the conversion [Cache] makes repeated
// access of a stable entry yield a stable wrapper.
type ObjectView struct {
	conv   *Converter
	raw    any
	source reflect.Value
	opts   options
}

// isConvertibleObject reports whether v is a non-nil string-keyed map or a
// non-nil pointer to struct.
func isConvertibleObject(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Map:
		return v.Type().Key().Kind() == reflect.String && !v.IsNil()
	case reflect.Pointer:
		return v.Type().Elem().Kind() == reflect.Struct && !v.IsNil()
	}
	return false
}

// Object wraps a convertible object into an [ObjectView].
//
// The bind of the view's conversions defaults to the source object itself
// (not the individual entry); [Self] also resolves to the source object.
// With caching enabled, converting the same object again under structurally
// identical options returns the identical view.
func (c *Converter) Object(target any, opts ...Option) (*ObjectView, error) {
	v := reflect.ValueOf(target)
	if !isConvertibleObject(v) {
		return nil, &InvalidTargetError{Target: target}
	}
	o, err := c.resolve(target, opts)
	if err != nil {
		return nil, err
	}

	key := targetKey(v)
	if o.cache {
		if w, ok := c.cache.get(key, o); ok {
			if ov, ok := w.(*ObjectView); ok {
				c.logCacheHit("object", o)
				return ov, nil
			}
		}
	}

	ov := &ObjectView{conv: c, raw: target, source: v, opts: o}
	if o.cache {
		c.cache.put(key, ov, o)
	}
	c.logConverted("object", o)
	return ov, nil
}

// Source returns the underlying object.
func (x *ObjectView) Source() any { return x.raw }

// Get reads a property. A callable entry is returned as a [WrappedFunc];
// a func that does not follow the callable convention, and every non-func
// value, is returned unchanged. Missing map keys yield nil; unknown struct
// properties yield [ErrUnknownProperty].
func (x *ObjectView) Get(name string) (any, error) {
	val, method, ok, err := x.lookup(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if val.Kind() == reflect.Func && !val.IsNil() {
		// Method values all share one reflect call stub, so the owning
		// object plus the name is the identity; other func values carry a
		// usable pointer of their own.
		key := targetKey(val)
		if method {
			key = methodKey(x.source, name)
		}
		raw := val.Interface()
		wf, err := x.conv.function(raw, val, x.opts, key)
		if err == nil {
			return wf, nil
		}
		var invalid *InvalidTargetError
		if errors.As(err, &invalid) {
			// Not a callable: pass through unchanged.
			return raw, nil
		}
		return nil, err
	}
	return val.Interface(), nil
}

// Set writes a property through to the underlying object. Struct methods
// and unexported fields are not settable.
func (x *ObjectView) Set(name string, value any) error {
	switch x.source.Kind() {
	case reflect.Map:
		t := x.source.Type()
		k := reflect.ValueOf(name).Convert(t.Key())
		ev, err := conformValue(value, t.Elem())
		if err != nil {
			return err
		}
		x.source.SetMapIndex(k, ev)
		return nil
	default:
		f := x.source.Elem().FieldByName(name)
		if !f.IsValid() || !f.CanSet() {
			return fmt.Errorf("%w: %s is not a settable property of %T", ErrUnknownProperty, name, x.raw)
		}
		fv, err := conformValue(value, f.Type())
		if err != nil {
			return err
		}
		f.Set(fv)
		return nil
	}
}

// Call reads the named property and invokes it as a [WrappedFunc]. Lookup
// failures and non-callable properties reject the returned promise; Call
// itself never fails synchronously.
func (x *ObjectView) Call(name string, args ...Result) Promise {
	got, err := x.Get(name)
	if err == nil && got == nil {
		err = fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	var wf WrappedFunc
	if err == nil {
		var ok bool
		if wf, ok = got.(WrappedFunc); !ok {
			err = &TypeError{Message: fmt.Sprintf("promisify: property %q is not a callable", name)}
		}
	}
	if err != nil {
		d := x.conv.factory()
		d.Reject(err)
		return d.Promise()
	}
	return wf(args...)
}

// Keys returns the enumerable shape of the view, sorted: map keys, or
// exported struct fields plus methods.
func (x *ObjectView) Keys() []string {
	var keys []string
	switch x.source.Kind() {
	case reflect.Map:
		for _, k := range x.source.MapKeys() {
			keys = append(keys, k.String())
		}
	default:
		et := x.source.Type().Elem()
		for i := 0; i < et.NumField(); i++ {
			if f := et.Field(i); f.IsExported() {
				keys = append(keys, f.Name)
			}
		}
		pt := x.source.Type()
		for i := 0; i < pt.NumMethod(); i++ {
			keys = append(keys, pt.Method(i).Name)
		}
	}
	sort.Strings(keys)
	return keys
}

// lookup resolves a property to its reflect value, unwrapping interface
// values so callables stored in a map[string]any are recognized. The method
// result reports whether the value is a bound method rather than a field or
// map entry.
func (x *ObjectView) lookup(name string) (val reflect.Value, method, ok bool, err error) {
	switch x.source.Kind() {
	case reflect.Map:
		k := reflect.ValueOf(name).Convert(x.source.Type().Key())
		mv := x.source.MapIndex(k)
		if !mv.IsValid() {
			return reflect.Value{}, false, false, nil
		}
		return unwrapInterface(mv), false, true, nil
	default:
		if f := x.source.Elem().FieldByName(name); f.IsValid() && f.CanInterface() {
			return unwrapInterface(f), false, true, nil
		}
		if m := x.source.MethodByName(name); m.IsValid() {
			return m, true, true, nil
		}
		return reflect.Value{}, false, false, fmt.Errorf("%w: %s on %T", ErrUnknownProperty, name, x.raw)
	}
}

func unwrapInterface(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return v.Elem()
	}
	return v
}

package promisify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcher struct {
	Endpoint string
	calls    int
}

func (f *fetcher) Fetch(suffix string, cb func(err error, url string)) {
	f.calls++
	cb(nil, f.Endpoint+suffix)
}

func TestObjectMapView(t *testing.T) {
	c := newTestConverter(t)

	m := map[string]any{
		"greet": func(name string, cb func(err error, s string)) {
			cb(nil, "hello "+name)
		},
		"version": 3,
		"tags":    []string{"a", "b"},
	}
	ov, err := c.Object(m)
	require.NoError(t, err)
	src, ok := ov.Source().(map[string]any)
	require.True(t, ok)
	src["marker"] = "x"
	assert.Equal(t, "x", m["marker"], "Source must return the underlying map")
	delete(m, "marker")

	t.Run("callable entry is wrapped", func(t *testing.T) {
		got, err := ov.Get("greet")
		require.NoError(t, err)
		wf, ok := got.(WrappedFunc)
		require.True(t, ok, "expected a WrappedFunc, got %T", got)
		v, err := awaitResult(t, wf("bob"))
		require.NoError(t, err)
		assert.Equal(t, "hello bob", v)
	})

	t.Run("non-callable entries pass through unchanged", func(t *testing.T) {
		got, err := ov.Get("version")
		require.NoError(t, err)
		assert.Equal(t, 3, got)

		got, err = ov.Get("tags")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("missing key yields nil", func(t *testing.T) {
		got, err := ov.Get("nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("writes go through to the map", func(t *testing.T) {
		require.NoError(t, ov.Set("version", 4))
		assert.Equal(t, 4, m["version"])
	})

	t.Run("keys are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"greet", "tags", "version"}, ov.Keys())
	})
}

func TestObjectStructView(t *testing.T) {
	c := newTestConverter(t)

	f := &fetcher{Endpoint: "https://api/"}
	ov, err := c.Object(f)
	require.NoError(t, err)

	t.Run("method is wrapped", func(t *testing.T) {
		got, err := ov.Get("Fetch")
		require.NoError(t, err)
		wf, ok := got.(WrappedFunc)
		require.True(t, ok, "expected a WrappedFunc, got %T", got)
		v, err := awaitResult(t, wf("users"))
		require.NoError(t, err)
		assert.Equal(t, "https://api/users", v)
		assert.Equal(t, 1, f.calls)
	})

	t.Run("field passes through", func(t *testing.T) {
		got, err := ov.Get("Endpoint")
		require.NoError(t, err)
		assert.Equal(t, "https://api/", got)
	})

	t.Run("unknown property", func(t *testing.T) {
		_, err := ov.Get("Nope")
		assert.ErrorIs(t, err, ErrUnknownProperty)
	})

	t.Run("field writes go through", func(t *testing.T) {
		require.NoError(t, ov.Set("Endpoint", "https://other/"))
		assert.Equal(t, "https://other/", f.Endpoint)
	})

	t.Run("methods are not settable", func(t *testing.T) {
		err := ov.Set("Fetch", func() {})
		assert.ErrorIs(t, err, ErrUnknownProperty)
	})

	t.Run("keys include exported fields and methods", func(t *testing.T) {
		assert.Equal(t, []string{"Endpoint", "Fetch"}, ov.Keys())
	})
}

type signaller struct{ ID int }

func (signaller) Alpha(cb func(err error, s string)) { cb(nil, "alpha") }
func (signaller) Beta(cb func(err error, s string))  { cb(nil, "beta") }
func (signaller) Gamma(cb func(err error, s string)) { cb(nil, "gamma") }

// Each method of a struct view must be wrapped independently: reflect method
// values share a single call stub, so pointer-only cache keying would hand
// every method the first one's wrapper.
func TestObjectStructMethodsDistinct(t *testing.T) {
	c := newTestConverter(t)

	ov, err := c.Object(&signaller{})
	require.NoError(t, err)

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		want := strings.ToLower(name)
		got, err := awaitResult(t, ov.Call(name))
		require.NoError(t, err)
		assert.Equal(t, want, got, "Call(%s)", name)
	}

	// Repeated access stays stable and still routes to the right method.
	got, err := awaitResult(t, ov.Call("Alpha"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
	got, err = awaitResult(t, ov.Call("Beta"))
	require.NoError(t, err)
	assert.Equal(t, "beta", got)
}

// An entry holding a func that does not follow the callable convention is not
// an error: it passes through unchanged.
func TestObjectNonConformingFunc(t *testing.T) {
	c := newTestConverter(t)

	plain := func(a, b int) int { return a + b }
	ov, err := c.Object(map[string]any{"add": plain})
	require.NoError(t, err)

	got, err := ov.Get("add")
	require.NoError(t, err)
	fn, ok := got.(func(a, b int) int)
	require.True(t, ok, "expected the raw func back, got %T", got)
	assert.Equal(t, 5, fn(2, 3))
}

// The view's bind resolves to the source object, delivered to entries that
// declare a Binding parameter.
func TestObjectBindResolvesToSource(t *testing.T) {
	c := newTestConverter(t)

	m := map[string]any{"self": 42}
	m["whoami"] = func(b Binding, cb func(err error, same bool)) {
		src, _ := b.Value.(map[string]any)
		cb(nil, src != nil && src["self"] == 42)
	}
	ov, err := c.Object(m)
	require.NoError(t, err)

	got, err := awaitResult(t, ov.Call("whoami"))
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestObjectCall(t *testing.T) {
	c := newTestConverter(t)

	ov, err := c.Object(map[string]any{
		"echo": func(s string, cb func(err error, s string)) { cb(nil, s) },
		"n":    7,
	})
	require.NoError(t, err)

	t.Run("dispatches to the wrapped entry", func(t *testing.T) {
		got, err := awaitResult(t, ov.Call("echo", "hi"))
		require.NoError(t, err)
		assert.Equal(t, "hi", got)
	})

	t.Run("missing property rejects", func(t *testing.T) {
		_, err := awaitResult(t, ov.Call("nope"))
		assert.ErrorIs(t, err, ErrUnknownProperty)
	})

	t.Run("non-callable property rejects", func(t *testing.T) {
		_, err := awaitResult(t, ov.Call("n"))
		var typeErr *TypeError
		assert.ErrorAs(t, err, &typeErr)
	})
}

// Re-converting the same object under structurally identical options returns
// the identical view; distinct options produce a distinct view.
func TestObjectViewIdentity(t *testing.T) {
	c := newTestConverter(t)

	m := map[string]any{"a": 1}
	ov1, err := c.Object(m)
	require.NoError(t, err)
	ov2, err := c.Object(m)
	require.NoError(t, err)
	assert.Same(t, ov1, ov2)

	ov3, err := c.Object(m, WithTimeout("1s"))
	require.NoError(t, err)
	assert.NotSame(t, ov1, ov3)

	ov4, err := c.Object(m, WithCache(false))
	require.NoError(t, err)
	assert.NotSame(t, ov1, ov4)
}

func TestObjectInvalidTargets(t *testing.T) {
	c := newTestConverter(t)

	type plain struct{ X int }
	for _, tc := range []struct {
		name   string
		target any
	}{
		{"nil", nil},
		{"int", 42},
		{"struct value", plain{}},
		{"nil map", (map[string]any)(nil)},
		{"nil pointer", (*plain)(nil)},
		{"int-keyed map", map[int]any{1: "x"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Object(tc.target)
			var invalid *InvalidTargetError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

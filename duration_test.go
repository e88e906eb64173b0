package promisify

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeout(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input any
		want  time.Duration
	}{
		{"nil", nil, 0},
		{"duration", 250 * time.Millisecond, 250 * time.Millisecond},
		{"int ms", 2000, 2 * time.Second},
		{"int64 ms", int64(50), 50 * time.Millisecond},
		{"uint ms", uint(10), 10 * time.Millisecond},
		{"float ms", 1.5, 1500 * time.Microsecond},
		{"string duration", "2s", 2 * time.Second},
		{"string fractional", "1.5h", 90 * time.Minute},
		{"string millis", "150ms", 150 * time.Millisecond},
		{"bare integer string is ms", "500", 500 * time.Millisecond},
		{"zero", 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimeout(tc.input)
			if err != nil {
				t.Fatalf("ParseTimeout(%v) unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseTimeout(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDurationErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input any
	}{
		{"negative int", -1},
		{"negative duration", -time.Second},
		{"negative string", "-2s"},
		{"garbage string", "soon"},
		{"unsupported type", struct{}{}},
		{"bool", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTimeout(tc.input)
			if err == nil {
				t.Fatalf("ParseTimeout(%v) expected error", tc.input)
			}
			var typeErr *TypeError
			if !errors.As(err, &typeErr) {
				t.Errorf("ParseTimeout(%v) error %T, want *TypeError", tc.input, err)
			}
		})
	}
}

package promisify

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTimeout normalizes a configured timeout value into a [time.Duration].
//
// Accepted forms:
//   - nil: no timeout (zero duration)
//   - [time.Duration]: used as-is
//   - any integer or float type: milliseconds
//   - string: parsed by [time.ParseDuration] ("2s", "150ms", "1.5h"); a bare
//     integer string is interpreted as milliseconds
//
// Negative and unparseable values yield a [*TypeError].
func ParseTimeout(v any) (time.Duration, error) {
	var d time.Duration
	switch t := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		d = t
	case string:
		var err error
		if d, err = parseTimeoutString(t); err != nil {
			return 0, err
		}
	case int:
		d = time.Duration(t) * time.Millisecond
	case int8:
		d = time.Duration(t) * time.Millisecond
	case int16:
		d = time.Duration(t) * time.Millisecond
	case int32:
		d = time.Duration(t) * time.Millisecond
	case int64:
		d = time.Duration(t) * time.Millisecond
	case uint:
		d = time.Duration(t) * time.Millisecond
	case uint8:
		d = time.Duration(t) * time.Millisecond
	case uint16:
		d = time.Duration(t) * time.Millisecond
	case uint32:
		d = time.Duration(t) * time.Millisecond
	case uint64:
		d = time.Duration(t) * time.Millisecond
	case float32:
		d = time.Duration(float64(t) * float64(time.Millisecond))
	case float64:
		d = time.Duration(t * float64(time.Millisecond))
	default:
		return 0, &TypeError{Message: fmt.Sprintf("promisify: timeout of type %T is not supported", v)}
	}
	if d < 0 {
		return 0, &TypeError{Message: fmt.Sprintf("promisify: timeout must not be negative, got %v", v)}
	}
	return d, nil
}

func parseTimeoutString(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &TypeError{
			Message: fmt.Sprintf("promisify: invalid timeout %q", s),
			Cause:   err,
		}
	}
	return d, nil
}

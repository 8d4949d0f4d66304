package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseElapsed normalizes a provider-reported elapsed time into seconds.
// Backends report timing in three shapes: a bare number of seconds, an
// object with a "seconds" field, or a colon-delimited clock string such as
// "0:02:35". All three converge here; no format difference leaks past the
// adapter boundary.
func ParseElapsed(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("elapsed time is nil")
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return parseClock(t)
	case map[string]any:
		if sec, ok := t["seconds"]; ok {
			return ParseElapsed(sec)
		}
		return 0, fmt.Errorf("elapsed object has no seconds field")
	default:
		return 0, fmt.Errorf("unsupported elapsed type %T", v)
	}
}

// parseClock converts "SS", "MM:SS" or "H:MM:SS" to seconds.
func parseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("malformed clock string %q", s)
	}
	var total float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed clock string %q: %w", s, err)
		}
		total = total*60 + f
	}
	return total, nil
}

package server

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// intField reads key from a decoded JSON object. Integers, integral floats
// and numeric strings are accepted; a missing or null value yields def.
func intField(fields map[string]interface{}, key string, def int) (int, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		switch {
		case f >= math.MaxInt:
			return math.MaxInt, nil
		case f <= math.MinInt:
			return math.MinInt, nil
		}
		return int(f), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

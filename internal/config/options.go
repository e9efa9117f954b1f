package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Options is a loosely typed option bag, as a host hands it to a connector.
// Getters return def when a key is absent or has an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Require returns the non-empty string value for key or an error naming it.
func (o Options) Require(key string) (string, error) {
	if s := strings.TrimSpace(o.String(key, "")); s != "" {
		return s, nil
	}
	return "", fmt.Errorf("option %q is required", key)
}

// RequireOr returns the non-empty string value for key or def.
func (o Options) RequireOr(key, def string) string {
	if s, err := o.Require(key); err == nil {
		return s
	}
	return def
}

// Bool accepts a bool or a strconv.ParseBool string.
func (o Options) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int accepts int, float64 (as decoded from JSON) or a numeric string.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Duration accepts a time.Duration or a time.ParseDuration string.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	switch v := o[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Rune returns the first rune of a string value, for delimiters.
func (o Options) Rune(key string, def rune) rune {
	if s := o.String(key, ""); s != "" {
		return []rune(s)[0]
	}
	return def
}

// StringSlice accepts []string, []any of strings, or a comma-separated string.
func (o Options) StringSlice(key string) []string {
	switch v := o[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitList(v)
	}
	return nil
}

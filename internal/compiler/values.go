package compiler

import (
	"encoding/json"
	"math"
	"slices"
	"sort"
	"strings"
)

// Accessors over decoded YAML/JSON values. YAML decodes integers as int,
// JSON and CUE exports as json.Number.

func asMap(path string, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errorf(path, "expected an object, got %s", describe(v))
	}
	return m, nil
}

func asList(path string, v any) ([]any, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, errorf(path, "expected a list, got %s", describe(v))
	}
	return l, nil
}

// listOrEmpty is asList for optional fields.
func listOrEmpty(path string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	return asList(path, v)
}

func asString(path string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errorf(path, "expected a string, got %s", describe(v))
	}
	return s, nil
}

func optString(path string, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	return asString(path, v)
}

func asBool(path string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errorf(path, "expected a boolean, got %s", describe(v))
	}
	return b, nil
}

func asInt(path string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, errorf(path, "integer %d out of range", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errorf(path, "expected an integer, got %s", n)
		}
		return i, nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, errorf(path, "expected an integer, got %v", n)
		}
		return int64(n), nil
	default:
		return 0, errorf(path, "expected an integer, got %s", describe(v))
	}
}

// checkKeys rejects keys outside allowed.
func checkKeys(path string, m map[string]any, allowed ...string) error {
	var unknown []string
	for k := range m {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errorf(path, "unknown field(s) %s", strings.Join(unknown, ", "))
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	default:
		return "a number"
	}
}

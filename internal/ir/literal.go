package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kind names the type of a document literal.
type Kind string

const (
	KindAuto      Kind = ""
	KindString    Kind = "string"
	KindInt       Kind = "int"
	KindBool      Kind = "bool"
	KindDecimal   Kind = "decimal"
	KindDate      Kind = "date"
	KindTimestamp Kind = "timestamp"
	KindNull      Kind = "null"
)

// dateLayout is the accepted format for KindDate literals.
const dateLayout = "2006-01-02"

// Literal converts a decoded document scalar into a driver value.
//
// With KindAuto the Go type of raw decides:
//
//	string            → string
//	int, int64, ...   → int64
//	float64           → decimal.Decimal (exact, never a binary float)
//	json.Number       → int64 if integral, else decimal.Decimal
//	bool              → bool
//	nil               → nil (SQL NULL)
//	[]any             → []any of converted elements
//
// An explicit kind coerces strings, so "12.50" with KindDecimal becomes a
// decimal and "2024-03-01" with KindDate becomes a time.Time in UTC.
func Literal(raw any, kind Kind) (any, error) {
	if list, ok := raw.([]any); ok {
		out := make([]any, len(list))
		for i, elem := range list {
			v, err := Literal(elem, kind)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	switch kind {
	case KindAuto:
		return autoLiteral(raw)
	case KindNull:
		if raw != nil {
			return nil, fmt.Errorf("null literal cannot carry value %v", raw)
		}
		return nil, nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case KindInt:
		return toInt(raw)
	case KindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid bool %q", v)
			}
			return b, nil
		}
		return nil, fmt.Errorf("expected bool, got %T", raw)
	case KindDecimal:
		return toDecimal(raw)
	case KindDate:
		return toTime(raw, dateLayout)
	case KindTimestamp:
		return toTime(raw, time.RFC3339Nano)
	default:
		return nil, fmt.Errorf("unknown literal kind %q", kind)
	}
}

func autoLiteral(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string, bool, int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", v)
		}
		return int64(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return toDecimal(v.String())
	case decimal.Decimal, time.Time:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported literal type %T", raw)
	}
}

func toInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid decimal %q", v)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return toDecimal(v.String())
	case decimal.Decimal:
		return v, nil
	}
	return decimal.Decimal{}, fmt.Errorf("expected decimal, got %T", raw)
}

func toTime(raw any, layout string) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q (layout %s)", v, layout)
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("expected time string, got %T", raw)
}

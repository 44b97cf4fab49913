package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a single cell. A nil Value (or a floating NaN) is missing.
type Value = any

// IsMissing reports whether v is a missing entry.
func IsMissing(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// DropMissing returns the non-missing values of col, preserving order.
func DropMissing(col []Value) []Value {
	out := make([]Value, 0, len(col))
	for _, v := range col {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// TryFloat attempts a numeric coercion of v. Date-like values coerce to
// fractional Unix seconds.
func TryFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case time.Time:
		return float64(x.Unix()) + float64(x.Nanosecond())/1e9, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Floats coerces every non-missing value of col. ok is false as soon as one
// value cannot be coerced.
func Floats(col []Value) (out []float64, ok bool) {
	out = make([]float64, 0, len(col))
	for _, v := range col {
		if IsMissing(v) {
			continue
		}
		f, ok := TryFloat(v)
		if !ok {
			return nil, false
		}
		if math.IsNaN(f) {
			continue
		}
		out = append(out, f)
	}
	return out, true
}

// Key returns a comparable key for v so that equal cells land in the same
// bucket: every numeric kind collapses to float64.
func Key(v Value) any {
	switch x := v.(type) {
	case string, bool:
		return x
	case time.Time:
		return x.UnixNano()
	}
	if f, ok := TryFloat(v); ok {
		return f
	}
	return fmt.Sprint(v)
}

// Text renders v the way text metrics compare it.
func Text(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

// Distinct counts the distinct values of col by Key.
func Distinct(col []Value) int {
	seen := make(map[any]struct{}, len(col))
	for _, v := range col {
		seen[Key(v)] = struct{}{}
	}
	return len(seen)
}

// Overlap counts the distinct non-missing values of a that also occur in b.
func Overlap(a, b []Value) int {
	inB := make(map[any]struct{}, len(b))
	for _, v := range b {
		if !IsMissing(v) {
			inB[Key(v)] = struct{}{}
		}
	}
	shared := make(map[any]struct{})
	for _, v := range a {
		if IsMissing(v) {
			continue
		}
		if _, ok := inB[Key(v)]; ok {
			shared[Key(v)] = struct{}{}
		}
	}
	return len(shared)
}

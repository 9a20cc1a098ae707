package paneltype

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jask/panels/internal/panel"
)

// Kind is the storage kind of an attribute column.
type Kind string

const (
	Integer Kind = "integer"
	Real    Kind = "real"
	Text    Kind = "text"
	Boolean Kind = "boolean"
)

// ParseKind accepts a kind name or the SQL type it is stored as.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer", "int":
		return Integer, nil
	case "real", "float":
		return Real, nil
	case "text", "string":
		return Text, nil
	case "boolean", "bool":
		return Boolean, nil
	}
	return "", fmt.Errorf("unknown attribute kind %q", s)
}

// SQLType is the column type used in the type's attribute table.
func (k Kind) SQLType() string {
	switch k {
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

// Normalize coerces v to the Go type values of this kind are carried as:
// int64, float64, string or bool. nil passes through as SQL NULL.
func (k Kind) Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case Integer:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case float64:
			// MaxInt64 rounds up to 2^63 as a float64, so the bound is exclusive
			if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
				return int64(x), nil
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return n, nil
			}
		}
	case Real:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, nil
			}
		}
	case Text:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	case Boolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int:
			return x != 0, nil
		case int64:
			return x != 0, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) is not %s", panel.ErrAttributeKind, v, v, k)
}

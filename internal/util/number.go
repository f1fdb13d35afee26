package util

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reThousandsComma = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	reDecimalComma   = regexp.MustCompile(`^-?\d+,\d+$`)
)

// ToDecimal coerces a loosely typed JSON value into a decimal. Booleans,
// nil and non-numeric strings are rejected.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case int32:
		return decimal.NewFromInt32(t), true
	case decimal.Decimal:
		return t, true
	case string:
		token := normalizeNumericToken(t)
		if token == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(token)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

// IsNumeric reports whether v arrived as a JSON number rather than text.
func IsNumeric(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int64, int32, decimal.Decimal:
		return true
	default:
		return false
	}
}

// StringValue renders a decoded JSON scalar the way it should appear in an
// identifier or a label. Integral numbers lose their fractional part.
func StringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		s := t.String()
		if d, err := decimal.NewFromString(s); err == nil && d.IsInteger() {
			return d.String()
		}
		return s
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		blob, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(blob)
	}
}

// IsTruthy treats empty strings, zero numbers, false, nil and empty
// collections as absent.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if d, ok := ToDecimal(v); ok && IsNumeric(v) {
		return !d.IsZero()
	}
	return true
}

func StringPtr(v string) *string { return &v }

func normalizeNumericToken(token string) string {
	compact := strings.TrimSpace(token)
	compact = strings.TrimPrefix(compact, "$")
	compact = strings.ReplaceAll(compact, "\u00A0", "")
	compact = strings.ReplaceAll(compact, " ", "")
	if reThousandsComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if reDecimalComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

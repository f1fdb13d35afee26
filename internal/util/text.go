package util

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatPhone renders a supplier phone value. Numeric values become a digit
// string, and ten-digit strings get the (XXX) XXX-XXXX layout. Text values
// are returned as given.
func FormatPhone(v any) string {
	if !IsNumeric(v) {
		return StringValue(v)
	}
	d, ok := ToDecimal(v)
	if !ok {
		return StringValue(v)
	}
	digits := d.Truncate(0).String()
	if len(digits) != 10 {
		return digits
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

// HumanizeKey turns a field name like C_Postal_Code into "Postal Code".
func HumanizeKey(key string) string {
	k := strings.TrimPrefix(key, "C_")
	k = strings.ReplaceAll(k, "_", " ")
	return cases.Title(language.English).String(strings.TrimSpace(k))
}

func FormatMoney(d decimal.Decimal) string {
	f := d.Round(2).InexactFloat64()
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

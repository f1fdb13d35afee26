package pipeline

import (
	"sort"
	"strings"

	"portal/internal"
	"portal/internal/util"
)

// ApplyFilter keeps the summaries that satisfy every active predicate, in
// their input order. A status of "All" or "" disables the status check,
// the date range is active only when both ends are set, and a search that is
// empty after trimming disables the order id match.
func ApplyFilter(summaries []internal.OrderSummary, f internal.OrderFilter) []internal.OrderSummary {
	out := make([]internal.OrderSummary, 0, len(summaries))
	for _, s := range summaries {
		if matchesFilter(s, f) {
			out = append(out, s)
		}
	}
	return out
}

func matchesFilter(s internal.OrderSummary, f internal.OrderFilter) bool {
	if f.Status != "" && f.Status != internal.StatusAll && s.Status != f.Status {
		return false
	}
	if f.From != nil && f.To != nil {
		if s.OrderDate == nil {
			return false
		}
		day := util.DateOnly(*s.OrderDate)
		if day.Before(util.DateOnly(*f.From)) || day.After(util.DateOnly(*f.To)) {
			return false
		}
	}
	if search := strings.TrimSpace(f.Search); search != "" && !util.ContainsFold(s.OrderID, search) {
		return false
	}
	return true
}

// SortByDateDesc returns a copy ordered newest first. Summaries without a
// date go last and keep their relative order.
func SortByDateDesc(summaries []internal.OrderSummary) []internal.OrderSummary {
	out := make([]internal.OrderSummary, len(summaries))
	copy(out, summaries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].OrderDate, out[j].OrderDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return out
}

package pipeline

import (
	"testing"
	"time"

	"portal/internal"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func filterFixture() []internal.OrderSummary {
	return []internal.OrderSummary{
		{OrderID: "10248", Status: "Shipped", OrderDate: day("2024-01-05")},
		{OrderID: "10249", Status: "Pending", OrderDate: day("2024-02-10")},
		{OrderID: "A-77", Status: "Shipped"},
		{OrderID: "a-78", Status: "Pending", OrderDate: day("2024-03-01")},
	}
}

func ids(summaries []internal.OrderSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.OrderID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyFilter(t *testing.T) {
	cases := []struct {
		name   string
		filter internal.OrderFilter
		want   []string
	}{
		{name: "no filter", filter: internal.OrderFilter{}, want: []string{"10248", "10249", "A-77", "a-78"}},
		{name: "all sentinel", filter: internal.OrderFilter{Status: "All"}, want: []string{"10248", "10249", "A-77", "a-78"}},
		{name: "status exact", filter: internal.OrderFilter{Status: "Shipped"}, want: []string{"10248", "A-77"}},
		{name: "status is case sensitive", filter: internal.OrderFilter{Status: "shipped"}, want: []string{}},
		{
			name:   "inclusive range drops undated",
			filter: internal.OrderFilter{From: day("2024-01-05"), To: day("2024-02-10")},
			want:   []string{"10248", "10249"},
		},
		{
			name:   "half range is inactive",
			filter: internal.OrderFilter{From: day("2024-02-01")},
			want:   []string{"10248", "10249", "A-77", "a-78"},
		},
		{name: "search ignores case", filter: internal.OrderFilter{Search: "A-7"}, want: []string{"A-77", "a-78"}},
		{name: "blank search is inactive", filter: internal.OrderFilter{Search: "   "}, want: []string{"10248", "10249", "A-77", "a-78"}},
		{name: "search is trimmed", filter: internal.OrderFilter{Search: " a-7 "}, want: []string{"A-77", "a-78"}},
		{name: "search substring", filter: internal.OrderFilter{Search: "024"}, want: []string{"10248", "10249"}},
		{
			name:   "predicates combine",
			filter: internal.OrderFilter{Status: "Pending", From: day("2024-01-01"), To: day("2024-12-31"), Search: "a"},
			want:   []string{"a-78"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(ApplyFilter(filterFixture(), tc.filter))
			if !equalIDs(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestApplyFilterIsIdempotent(t *testing.T) {
	f := internal.OrderFilter{Status: "Shipped", Search: "10"}
	once := ApplyFilter(filterFixture(), f)
	twice := ApplyFilter(once, f)
	if !equalIDs(ids(once), ids(twice)) {
		t.Fatalf("once=%v twice=%v", ids(once), ids(twice))
	}
}

func TestApplyFilterRangeUsesCalendarDay(t *testing.T) {
	late := time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC)
	summaries := []internal.OrderSummary{{OrderID: "1", OrderDate: &late}}
	got := ApplyFilter(summaries, internal.OrderFilter{From: day("2024-01-05"), To: day("2024-01-05")})
	if len(got) != 1 {
		t.Fatalf("expected same-day order to match, got %v", ids(got))
	}
}

func TestSortByDateDesc(t *testing.T) {
	input := []internal.OrderSummary{
		{OrderID: "undated-1"},
		{OrderID: "old", OrderDate: day("2023-06-01")},
		{OrderID: "new", OrderDate: day("2024-06-01")},
		{OrderID: "undated-2"},
	}
	got := ids(SortByDateDesc(input))
	want := []string{"new", "old", "undated-1", "undated-2"}
	if !equalIDs(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if input[0].OrderID != "undated-1" {
		t.Fatal("input slice was reordered")
	}
}

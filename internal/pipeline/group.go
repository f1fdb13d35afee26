package pipeline

import (
	"strings"

	"portal/internal"
	"portal/internal/util"
)

// OrderGroups partitions a row arena by order identifier. Index maps each
// identifier to the positions of its rows in fetch order; Keys lists the
// identifiers in first-seen order.
type OrderGroups struct {
	Keys    []string
	Index   map[string][]int
	Unkeyed int
}

// GroupRows groups by identifier value, so repeats need not be adjacent.
// Values are compared as given, surrounding whitespace included. Rows with
// no identifier value, or only whitespace, are counted in Unkeyed and left
// out.
func GroupRows(rows []internal.NormalizedRow, idKey string) OrderGroups {
	groups := OrderGroups{Index: map[string][]int{}}
	for i, row := range rows {
		id, ok := orderIDValue(row, idKey)
		if !ok {
			groups.Unkeyed++
			continue
		}
		if _, seen := groups.Index[id]; !seen {
			groups.Keys = append(groups.Keys, id)
		}
		groups.Index[id] = append(groups.Index[id], i)
	}
	return groups
}

func (g OrderGroups) Len() int {
	return len(g.Keys)
}

// Rows returns the rows of one order, or nil for an unknown identifier.
func (g OrderGroups) Rows(rows []internal.NormalizedRow, id string) []internal.NormalizedRow {
	idx, ok := g.Index[id]
	if !ok {
		return nil
	}
	out := make([]internal.NormalizedRow, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

func orderIDValue(row internal.NormalizedRow, idKey string) (string, bool) {
	v, ok := row[idKey]
	if !ok || v == nil {
		return "", false
	}
	id := util.StringValue(v)
	if strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

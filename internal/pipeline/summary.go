package pipeline

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"portal/internal"
	"portal/internal/util"
)

var activeStatuses = map[string]struct{}{
	"pending":    {},
	"processing": {},
}

// OrderBook is one customer's fetched orders after decoding and grouping.
// It lives for a single page view.
type OrderBook struct {
	Schema    Schema
	Rows      []internal.NormalizedRow
	Groups    OrderGroups
	Summaries []internal.OrderSummary
	Received  int
	Failed    int
}

// BuildOrderBook decodes, groups and summarises one fetch. An empty fetch is
// not an error. ErrNoValidOrders and ErrNoIdentifierColumn leave the book
// without summaries but keep its counters.
func BuildOrderBook(raw []json.RawMessage) (*OrderBook, error) {
	decoded := DecodeRows(raw)
	book := &OrderBook{
		Rows:     decoded.Rows,
		Received: len(raw),
		Failed:   decoded.Failed,
	}
	if len(raw) == 0 {
		return book, nil
	}
	if len(decoded.Rows) == 0 {
		return book, ErrNoValidOrders
	}

	schema, err := ResolveSchema(decoded.Rows)
	if err != nil {
		return book, err
	}
	book.Schema = schema
	book.Groups = GroupRows(decoded.Rows, schema.OrderID)
	book.Summaries = Summarize(decoded.Rows, book.Groups, schema)
	return book, nil
}

// Summarize builds one summary per group, in group order. Status and dates
// come from the first row of the group.
func Summarize(rows []internal.NormalizedRow, groups OrderGroups, schema Schema) []internal.OrderSummary {
	out := make([]internal.OrderSummary, 0, groups.Len())
	for _, id := range groups.Keys {
		idx := groups.Index[id]
		first := rows[idx[0]]

		summary := internal.OrderSummary{
			OrderID:    id,
			Status:     internal.StatusUnknown,
			ItemCount:  len(idx),
			OrderTotal: orderTotal(rows, idx, schema),
		}
		if v, ok := schema.value(first, schema.Status); ok {
			if status := strings.TrimSpace(util.StringValue(v)); status != "" {
				summary.Status = status
			}
		}
		if v, ok := schema.value(first, schema.OrderDate); ok {
			summary.OrderDate = util.ParseDate(v)
		}
		if v, ok := schema.value(first, schema.ShipDate); ok {
			summary.ShipDate = util.ParseDate(v)
		}
		for _, i := range idx {
			if v, ok := schema.value(rows[i], schema.ProductName); ok {
				if name := strings.TrimSpace(util.StringValue(v)); name != "" {
					summary.ProductNames = append(summary.ProductNames, name)
				}
			}
		}
		out = append(out, summary)
	}
	return out
}

// orderTotal prefers price x quantity over every row, then the first row's
// total field, then zero.
func orderTotal(rows []internal.NormalizedRow, idx []int, schema Schema) decimal.Decimal {
	if schema.Price != "" && schema.Quantity != "" {
		total := decimal.Zero
		complete := true
		for _, i := range idx {
			price, okPrice := numericField(rows[i], schema, schema.Price)
			qty, okQty := numericField(rows[i], schema, schema.Quantity)
			if !okPrice || !okQty {
				complete = false
				break
			}
			total = total.Add(price.Mul(qty))
		}
		if complete {
			return total
		}
	}
	if v, ok := schema.value(rows[idx[0]], schema.Total); ok {
		if d, ok := util.ToDecimal(v); ok {
			return d
		}
	}
	return decimal.Zero
}

func numericField(row internal.NormalizedRow, schema Schema, key string) (decimal.Decimal, bool) {
	v, ok := schema.value(row, key)
	if !ok {
		return decimal.Zero, false
	}
	return util.ToDecimal(v)
}

// Items returns the rows of one order in fetch order.
func (b *OrderBook) Items(orderID string) []internal.NormalizedRow {
	return b.Groups.Rows(b.Rows, orderID)
}

// ItemLine is one row of an order as the detail view lists it. Priced is
// false when the row lacks a numeric price or quantity.
type ItemLine struct {
	ProductName string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Priced      bool
}

func (b *OrderBook) ItemLines(orderID string) []ItemLine {
	rows := b.Items(orderID)
	out := make([]ItemLine, 0, len(rows))
	for _, row := range rows {
		line := ItemLine{}
		if v, ok := b.Schema.value(row, b.Schema.ProductName); ok {
			line.ProductName = strings.TrimSpace(util.StringValue(v))
		}
		price, okPrice := numericField(row, b.Schema, b.Schema.Price)
		qty, okQty := numericField(row, b.Schema, b.Schema.Quantity)
		if okPrice && okQty {
			line.Price, line.Quantity, line.Priced = price, qty, true
		}
		out = append(out, line)
	}
	return out
}

func (b *OrderBook) Summary(orderID string) (internal.OrderSummary, bool) {
	for _, s := range b.Summaries {
		if s.OrderID == orderID {
			return s, true
		}
	}
	return internal.OrderSummary{}, false
}

// BuildDashboard computes the headline cards and filter choices.
func BuildDashboard(book *OrderBook) internal.Dashboard {
	dash := internal.Dashboard{
		TotalSpent:    decimal.Zero,
		StatusOptions: []string{internal.StatusAll},
	}
	if book == nil {
		return dash
	}
	dash.TotalOrders = len(book.Summaries)
	dash.TotalItems = len(book.Rows)

	statuses := map[string]struct{}{}
	for _, s := range book.Summaries {
		dash.TotalSpent = dash.TotalSpent.Add(s.OrderTotal)
		if _, ok := activeStatuses[strings.ToLower(s.Status)]; ok {
			dash.ActiveOrders++
		}
		statuses[s.Status] = struct{}{}
		if s.OrderDate != nil {
			if dash.MinDate == nil || s.OrderDate.Before(*dash.MinDate) {
				dash.MinDate = s.OrderDate
			}
			if dash.MaxDate == nil || s.OrderDate.After(*dash.MaxDate) {
				dash.MaxDate = s.OrderDate
			}
		}
	}

	options := make([]string, 0, len(statuses))
	for status := range statuses {
		options = append(options, status)
	}
	sort.Strings(options)
	dash.StatusOptions = append(dash.StatusOptions, options...)
	return dash
}

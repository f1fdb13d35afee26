package web

import (
	"strconv"

	"github.com/shopspring/decimal"

	"portal/internal"
	"portal/internal/pipeline"
	"portal/internal/util"
)

type loginPageData struct {
	CustomerID       string
	Error            string
	PasswordRequired bool
}

type ordersPageData struct {
	CustomerID   string
	CustomerName string
	Notices      []pipeline.Notice
	Dashboard    dashboardView
	Filter       filterView
	Orders       []orderView
	Total        int
	ExportURL    string
	FetchedAt    string
}

type dashboardView struct {
	TotalOrders  int
	ActiveOrders int
	TotalSpent   string
	TotalItems   int
}

type filterView struct {
	Status        string
	StatusOptions []string
	From          string
	To            string
	Search        string
	MinDate       string
	MaxDate       string
}

type orderView struct {
	ID                    string
	Status                string
	OrderDate             string
	ShipDate              string
	Total                 string
	ItemCount             int
	Items                 []itemView
	Open                  bool
	Recommendations       []string
	RecommendationNotices []pipeline.Notice
}

type itemView struct {
	Product  string
	Price    string
	Quantity string
	Subtotal string
}

type lookupPageData struct {
	CustomerID string
	ProductID  string
	Notices    []pipeline.Notice
	Supplier   *supplierView
}

type supplierView struct {
	Known       bool
	CompanyName string
	Fields      []internal.SupplierField
	Additional  []internal.SupplierField
	RawJSON     string
}

func newDashboardView(d internal.Dashboard) dashboardView {
	return dashboardView{
		TotalOrders:  d.TotalOrders,
		ActiveOrders: d.ActiveOrders,
		TotalSpent:   util.FormatMoney(d.TotalSpent),
		TotalItems:   d.TotalItems,
	}
}

func newOrderView(s internal.OrderSummary, lines []pipeline.ItemLine) orderView {
	view := orderView{
		ID:        s.OrderID,
		Status:    s.Status,
		OrderDate: util.FormatLongDate(s.OrderDate),
		ShipDate:  util.FormatLongDate(s.ShipDate),
		Total:     util.FormatMoney(s.OrderTotal),
		ItemCount: s.ItemCount,
	}
	for i, line := range lines {
		item := itemView{Product: line.ProductName, Price: "-", Quantity: "-", Subtotal: "-"}
		if item.Product == "" {
			item.Product = "Item " + strconv.Itoa(i+1)
		}
		if line.Priced {
			item.Price = util.FormatMoney(line.Price)
			item.Quantity = formatQuantity(line.Quantity)
			item.Subtotal = util.FormatMoney(line.Price.Mul(line.Quantity))
		}
		view.Items = append(view.Items, item)
	}
	return view
}

func formatQuantity(q decimal.Decimal) string {
	if q.IsInteger() {
		return q.String()
	}
	return q.StringFixed(2)
}

// newSupplierView lists the fixed supplier fields in display order and
// skips the ones the payload left out.
func newSupplierView(v internal.SupplierView) supplierView {
	out := supplierView{
		Known:       v.Known,
		CompanyName: v.CompanyName,
		Additional:  v.Additional,
		RawJSON:     v.RawJSON,
	}
	if !v.Known {
		return out
	}
	if out.CompanyName == "" {
		out.CompanyName = "Unknown Company"
	}
	fixed := []internal.SupplierField{
		{Label: "Company ID", Value: v.CompanyID},
		{Label: "Contact", Value: v.ContactName},
		{Label: "Phone", Value: v.Phone},
		{Label: "Fax", Value: v.Fax},
		{Label: "City", Value: v.City},
		{Label: "Country", Value: v.Country},
	}
	for _, f := range fixed {
		if f.Value != "" {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

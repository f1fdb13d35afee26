package internal

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedRow is one decoded order line item keyed by its upstream field names.
type NormalizedRow map[string]any

const (
	StatusUnknown = "Unknown"
	StatusAll     = "All"
	NotAvailable  = "Not Available"
)

type OrderSummary struct {
	OrderID      string
	OrderDate    *time.Time
	ShipDate     *time.Time
	Status       string
	ItemCount    int
	OrderTotal   decimal.Decimal
	ProductNames []string
}

type OrderFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Search string
}

type Dashboard struct {
	TotalOrders   int
	ActiveOrders  int
	TotalSpent    decimal.Decimal
	TotalItems    int
	StatusOptions []string
	MinDate       *time.Time
	MaxDate       *time.Time
}

type SupplierField struct {
	Label string
	Value string
}

type SupplierView struct {
	Known       bool
	CompanyName string
	CompanyID   string
	ContactName string
	Phone       string
	Fax         string
	City        string
	Country     string
	Additional  []SupplierField
	RawJSON     string
}

type Session struct {
	CustomerID string
	ExpiresAt  time.Time
}

type RunKind string

const (
	RunOrders          RunKind = "orders"
	RunSupplier        RunKind = "supplier"
	RunRecommendations RunKind = "recommendations"
)

type RunRow struct {
	ID         int
	TraceID    string
	CustomerID string
	Kind       RunKind
	Outcome    string
	Counts     map[string]int
	TotalMs    float64
	CreatedAt  string
}

type LookupOutcome string

const (
	LookupFound      LookupOutcome = "found"
	LookupUnexpected LookupOutcome = "unexpected"
	LookupInvalid    LookupOutcome = "invalid"
	LookupEmpty      LookupOutcome = "empty"
	LookupError      LookupOutcome = "error"
)

type LookupRow struct {
	ID         int
	CustomerID string
	ProductID  string
	Outcome    LookupOutcome
	Company    *string
	CreatedAt  string
}

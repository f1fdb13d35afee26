package pipeline

import (
	"errors"

	"portal/internal"
)

var (
	ErrNoIdentifierColumn = errors.New("no order ID column found in the data")
	ErrNoValidOrders      = errors.New("no valid orders could be loaded")
)

// Candidate field names per logical column, highest priority first.
var (
	orderIDKeys     = []string{"OrderID", "OrderNumber", "order_id", "order_number"}
	orderDateKeys   = []string{"OrderDate", "order_date"}
	shipDateKeys    = []string{"ShipDate", "ship_date"}
	statusKeys      = []string{"Status", "status"}
	priceKeys       = []string{"Price", "price", "UnitPrice", "unit_price"}
	quantityKeys    = []string{"Quantity", "quantity"}
	totalKeys       = []string{"TotalAmount", "total_amount"}
	productNameKeys = []string{"ProductName", "product_name"}
)

// Schema is the field name chosen for each logical column of one batch.
// An empty name means the batch has no such column.
type Schema struct {
	OrderID     string
	OrderDate   string
	ShipDate    string
	Status      string
	Price       string
	Quantity    string
	Total       string
	ProductName string
}

// ResolveOrderKey picks the order identifier field from one row's keys.
func ResolveOrderKey(row internal.NormalizedRow) (string, error) {
	for _, key := range orderIDKeys {
		if _, ok := row[key]; ok {
			return key, nil
		}
	}
	return "", ErrNoIdentifierColumn
}

// ResolveSchema takes the identifier field from the first row and every
// other column from the union of keys across the batch.
func ResolveSchema(rows []internal.NormalizedRow) (Schema, error) {
	if len(rows) == 0 {
		return Schema{}, ErrNoValidOrders
	}
	idKey, err := ResolveOrderKey(rows[0])
	if err != nil {
		return Schema{}, err
	}

	columns := map[string]struct{}{}
	for _, row := range rows {
		for key := range row {
			columns[key] = struct{}{}
		}
	}

	return Schema{
		OrderID:     idKey,
		OrderDate:   firstPresent(columns, orderDateKeys),
		ShipDate:    firstPresent(columns, shipDateKeys),
		Status:      firstPresent(columns, statusKeys),
		Price:       firstPresent(columns, priceKeys),
		Quantity:    firstPresent(columns, quantityKeys),
		Total:       firstPresent(columns, totalKeys),
		ProductName: firstPresent(columns, productNameKeys),
	}, nil
}

func (s Schema) value(row internal.NormalizedRow, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	v, ok := row[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func firstPresent(columns map[string]struct{}, candidates []string) string {
	for _, key := range candidates {
		if _, ok := columns[key]; ok {
			return key
		}
	}
	return ""
}

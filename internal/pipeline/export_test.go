package pipeline

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"portal/internal"
)

func exportFixture() []internal.OrderSummary {
	return []internal.OrderSummary{
		{
			OrderID:      "10248",
			OrderDate:    day("2024-01-05"),
			Status:       "Shipped",
			ItemCount:    2,
			OrderTotal:   decimal.RequireFromString("25.005"),
			ProductNames: []string{"Chai", "Tofu"},
		},
		{OrderID: "10249", Status: "Unknown", ItemCount: 1, OrderTotal: decimal.Zero},
	}
}

func TestExportSummariesToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.xlsx")
	if err := ExportSummariesToXLSX(exportFixture(), path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Orders")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][0] != "order_id" || rows[0][6] != "products" {
		t.Fatalf("header=%v", rows[0])
	}
	if rows[1][0] != "10248" || rows[1][1] != "2024-01-05" || rows[1][6] != "Chai, Tofu" {
		t.Fatalf("row=%v", rows[1])
	}
	if rows[1][5] != "25.01" {
		t.Fatalf("total=%q", rows[1][5])
	}
	if rows[2][1] != "" || rows[2][3] != "Unknown" {
		t.Fatalf("row=%v", rows[2])
	}
}

func TestWriteSummariesXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummariesXLSX(&buf, exportFixture()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	value, err := f.GetCellValue("Orders", "E2")
	if err != nil {
		t.Fatal(err)
	}
	if value != "2" {
		t.Fatalf("item_count=%q", value)
	}
}

package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"portal/internal"
)

var exportHeaders = []string{"order_id", "order_date", "ship_date", "status", "item_count", "order_total", "products"}

func ExportSummariesToXLSX(summaries []internal.OrderSummary, outputPath string) error {
	f, err := buildSummaryWorkbook(summaries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func WriteSummariesXLSX(w io.Writer, summaries []internal.OrderSummary) error {
	f, err := buildSummaryWorkbook(summaries)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

func buildSummaryWorkbook(summaries []internal.OrderSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Orders"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, s := range summaries {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, s.OrderID)
		set(2, formatISODate(s.OrderDate))
		set(3, formatISODate(s.ShipDate))
		set(4, s.Status)
		set(5, s.ItemCount)
		set(6, s.OrderTotal.Round(2).InexactFloat64())
		set(7, strings.Join(s.ProductNames, ", "))
	}
	return f, nil
}

func formatISODate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

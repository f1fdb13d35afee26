package storage

import (
	"path/filepath"
	"testing"

	"portal/internal"
	"portal/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	for _, customer := range []string{"42", "43", "42"} {
		err := db.InsertRun(internal.RunRow{
			TraceID:    "trace-" + customer,
			CustomerID: customer,
			Kind:       internal.RunOrders,
			Outcome:    "ok",
			Counts:     map[string]int{"received": 3, "failed": 1},
			TotalMs:    12.5,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRuns("42", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("len=%d", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Fatalf("expected newest first: %+v", runs)
	}
	if runs[0].Counts["failed"] != 1 || runs[0].Kind != internal.RunOrders {
		t.Fatalf("unexpected run %+v", runs[0])
	}

	all, err := db.ListRuns("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len=%d", len(all))
	}
}

func TestLookups(t *testing.T) {
	db := openTestDB(t)

	if err := db.InsertLookup("42", "PROD-1", internal.LookupFound, util.StringPtr("Acme")); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertLookup("42", "PROD-2", internal.LookupError, nil); err != nil {
		t.Fatal(err)
	}

	rows, err := db.ListLookups("42", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[0].ProductID != "PROD-2" || rows[0].Company != nil {
		t.Fatalf("unexpected row %+v", rows[0])
	}
	if rows[1].Company == nil || *rows[1].Company != "Acme" {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.GetMetadata("orders.last_fetch.42")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil, got %q", *missing)
	}

	if err := db.SetMetadata("orders.last_fetch.42", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("orders.last_fetch.42", "b"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMetadata("orders.last_fetch.42")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "b" {
		t.Fatalf("got %v", got)
	}
}

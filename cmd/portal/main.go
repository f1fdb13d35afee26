package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"portal/internal"
	"portal/internal/app"
	"portal/internal/config"
	"portal/internal/pipeline"
	"portal/internal/session"
	"portal/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "password:hash" {
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		password := fs.String("password", "", "plain password")
		_ = fs.Parse(os.Args[2:])
		hash, err := session.HashPassword(*password)
		must(err)
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	must(err)

	a, err := app.New(cfg)
	must(err)
	defer a.Close()

	switch cmd {
	case "serve":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(a.Server().Run(ctx))
	case "orders:summary":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		customer := fs.String("customer", "", "customer id")
		filter := filterFlags(fs)
		_ = fs.Parse(os.Args[2:])
		sess := mustSession(*customer)
		must(cfg.Require("UPSTREAM_TOKEN", cfg.UpstreamToken))
		if last, ok := a.Orders.LastFetch(sess.CustomerID); ok {
			fmt.Printf("previous fetch %s\n", last.Local().Format(time.RFC1123))
		}

		page, _ := a.Orders.Load(context.Background(), sess, true)
		printNotices(page.Notices)
		summaries := pipeline.SortByDateDesc(pipeline.ApplyFilter(page.Book.Summaries, filter()))
		d := page.Dashboard
		fmt.Printf("orders=%d active=%d items=%d spent=%s\n", d.TotalOrders, d.ActiveOrders, d.TotalItems, util.FormatMoney(d.TotalSpent))
		for _, s := range summaries {
			fmt.Printf("%-10s %-12s %-18s items=%-3d total=%s\n", s.OrderID, s.Status, util.FormatLongDate(s.OrderDate), s.ItemCount, util.FormatMoney(s.OrderTotal))
		}
	case "orders:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		customer := fs.String("customer", "", "customer id")
		out := fs.String("out", "", "output xlsx path")
		filter := filterFlags(fs)
		_ = fs.Parse(os.Args[2:])
		sess := mustSession(*customer)
		must(cfg.Require("UPSTREAM_TOKEN", cfg.UpstreamToken))
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, fmt.Sprintf("orders-%s.xlsx", sess.CustomerID))
		}

		page, err := a.Orders.Load(context.Background(), sess, true)
		printNotices(page.Notices)
		if err != nil && len(page.Book.Summaries) == 0 {
			must(err)
		}
		summaries := pipeline.SortByDateDesc(pipeline.ApplyFilter(page.Book.Summaries, filter()))
		must(pipeline.ExportSummariesToXLSX(summaries, *out))
		fmt.Printf("exported %d orders to %s\n", len(summaries), *out)
	case "supplier:lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		customer := fs.String("customer", "", "customer id")
		product := fs.String("product", "", "product id")
		_ = fs.Parse(os.Args[2:])
		sess := mustSession(*customer)
		must(cfg.Require("UPSTREAM_TOKEN", cfg.UpstreamToken))

		res := a.Suppliers.Lookup(context.Background(), sess, *product)
		printNotices(res.Notices)
		if res.View == nil {
			return
		}
		if !res.View.Known {
			fmt.Println(res.View.RawJSON)
			return
		}
		v := res.View
		fmt.Printf("company=%s id=%s contact=%s phone=%s fax=%s city=%s country=%s\n",
			v.CompanyName, v.CompanyID, v.ContactName, v.Phone, v.Fax, v.City, v.Country)
		for _, f := range v.Additional {
			fmt.Printf("  %s: %s\n", f.Label, f.Value)
		}
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		customer := fs.String("customer", "", "customer id (empty for all)")
		limit := fs.Int("limit", 20, "max rows")
		_ = fs.Parse(os.Args[2:])
		runs, err := a.DB.ListRuns(strings.TrimSpace(*customer), *limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s %-8s customer=%s kind=%s outcome=%s ms=%.0f counts=%v\n", r.CreatedAt, r.TraceID[:8], r.CustomerID, r.Kind, r.Outcome, r.TotalMs, r.Counts)
		}
	case "health":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if !a.Upstream.Health(ctx) {
			must(fmt.Errorf("upstream unhealthy at %s", cfg.UpstreamBaseURL))
		}
		fmt.Println("upstream ok")
	default:
		usage()
		os.Exit(1)
	}
}

// filterFlags registers the order filter flags and returns a builder that
// reads them after Parse.
func filterFlags(fs *flag.FlagSet) func() internal.OrderFilter {
	status := fs.String("status", internal.StatusAll, "order status or All")
	from := fs.String("from", "", "first order date, YYYY-MM-DD")
	to := fs.String("to", "", "last order date, YYYY-MM-DD")
	q := fs.String("q", "", "order id substring")
	return func() internal.OrderFilter {
		f := internal.OrderFilter{Status: *status, Search: strings.TrimSpace(*q)}
		if *from != "" {
			t, err := time.Parse("2006-01-02", *from)
			must(err)
			f.From = &t
		}
		if *to != "" {
			t, err := time.Parse("2006-01-02", *to)
			must(err)
			f.To = &t
		}
		return f
	}
}

func mustSession(customerID string) internal.Session {
	id, err := session.ValidateCustomerID(customerID)
	if err != nil {
		must(fmt.Errorf("--customer: %w", err))
	}
	return internal.Session{CustomerID: id}
}

func printNotices(notices []pipeline.Notice) {
	for _, n := range notices {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Level, n.Text)
	}
}

func usage() {
	fmt.Println("usage: portal <command>")
	fmt.Println("commands:")
	fmt.Println("  serve")
	fmt.Println("  orders:summary --customer=42 [--status=All] [--from=2024-01-01 --to=2024-12-31] [--q=...]")
	fmt.Println("  orders:export --customer=42 [--out=./out/orders-42.xlsx] [filters]")
	fmt.Println("  supplier:lookup --customer=42 --product=11")
	fmt.Println("  runs:list [--customer=42] [--limit=20]")
	fmt.Println("  health")
	fmt.Println("  password:hash --password=...")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"portal/internal"
	"portal/internal/metrics"
	"portal/internal/storage"
	"portal/internal/util"
)

// OrderSource is the slice of the upstream client the order tab needs.
type OrderSource interface {
	GetOrders(ctx context.Context, customerID string) ([]json.RawMessage, error)
	GetCustomer(ctx context.Context, customerID string) (map[string]any, error)
	GetRecommendations(ctx context.Context, customerID string, productNames []string) ([]string, error)
}

var customerNameKeys = []string{"ContactName", "CompanyName", "CustomerName", "customer_name", "Name", "name"}

type OrderService struct {
	source  OrderSource
	db      *storage.DB
	cache   *cache.Cache
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *zap.Logger
}

// OrderPage is everything the orders tab renders for one request.
type OrderPage struct {
	Book      *OrderBook
	Dashboard internal.Dashboard
	Notices   []Notice
	FetchedAt time.Time
}

func NewOrderService(source OrderSource, db *storage.DB, reg *metrics.Registry, logger *zap.Logger, cacheTTL time.Duration) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := time.Duration(0)
	if cacheTTL > 0 {
		cleanup = 2 * cacheTTL
	}
	return &OrderService{
		source:  source,
		db:      db,
		cache:   cache.New(cacheTTL, cleanup),
		ttl:     cacheTTL,
		metrics: reg,
		logger:  logger,
	}
}

// Load fetches and normalises the session customer's orders. The page is
// always usable: failures surface as notices over an empty book, and the
// returned error is the cause for callers that want it. Successful pages
// are cached per customer until refresh is requested or the TTL passes; a
// zero TTL disables the cache.
func (s *OrderService) Load(ctx context.Context, sess internal.Session, refresh bool) (OrderPage, error) {
	key := ordersCacheKey(sess.CustomerID)
	if !refresh && s.ttl > 0 {
		if cached, found := s.cache.Get(key); found {
			return cached.(OrderPage), nil
		}
	}

	start := time.Now()
	run := internal.RunRow{
		TraceID:    uuid.NewString(),
		CustomerID: sess.CustomerID,
		Kind:       internal.RunOrders,
		Counts:     map[string]int{},
	}
	page := OrderPage{Book: &OrderBook{}, FetchedAt: start.UTC()}

	raw, err := s.source.GetOrders(ctx, sess.CustomerID)
	if err != nil {
		s.logger.Warn("fetch orders failed", zap.String("customerId", sess.CustomerID), zap.String("traceId", run.TraceID), zap.Error(err))
		page.Notices = append(page.Notices, upstreamNotice("orders", err))
		page.Dashboard = BuildDashboard(page.Book)
		run.Outcome = "upstream_error"
		s.recordRun(run, start)
		return page, err
	}

	book, buildErr := BuildOrderBook(raw)
	page.Book = book
	page.Dashboard = BuildDashboard(book)
	s.metrics.ObserveRows(len(book.Rows), book.Failed, book.Groups.Unkeyed)

	run.Counts["received"] = book.Received
	run.Counts["decoded"] = len(book.Rows)
	run.Counts["failed"] = book.Failed
	run.Counts["unkeyed"] = book.Groups.Unkeyed
	run.Counts["orders"] = len(book.Summaries)

	if book.Received == 0 {
		page.Notices = append(page.Notices, noticef(NoticeInfo, "No orders found."))
	}
	if book.Failed > 0 {
		page.Notices = append(page.Notices, noticef(NoticeWarning, "%d item(s) could not be loaded properly.", book.Failed))
	}
	switch {
	case errors.Is(buildErr, ErrNoValidOrders):
		page.Notices = append(page.Notices, noticef(NoticeError, "No valid orders could be loaded."))
		run.Outcome = "no_valid_orders"
	case errors.Is(buildErr, ErrNoIdentifierColumn):
		page.Notices = append(page.Notices, noticef(NoticeError, "No order ID column found in the data."))
		run.Outcome = "no_identifier"
	case buildErr != nil:
		run.Outcome = "error"
	default:
		run.Outcome = "ok"
	}
	s.recordRun(run, start)
	if buildErr != nil {
		s.logger.Warn("order batch unusable", zap.String("customerId", sess.CustomerID), zap.String("traceId", run.TraceID), zap.Error(buildErr))
		return page, buildErr
	}

	s.logger.Info("orders loaded",
		zap.String("customerId", sess.CustomerID),
		zap.String("traceId", run.TraceID),
		zap.Int("received", book.Received),
		zap.Int("failed", book.Failed),
		zap.Int("orders", len(book.Summaries)),
	)
	if s.ttl > 0 {
		s.cache.Set(key, page, cache.DefaultExpiration)
	}
	if s.db != nil {
		_ = s.db.SetMetadata(lastFetchKey(sess.CustomerID), page.FetchedAt.Format(time.RFC3339))
	}
	return page, nil
}

// LastFetch returns when the customer's orders were last fetched from the
// order API, as recorded in the audit store.
func (s *OrderService) LastFetch(customerID string) (time.Time, bool) {
	if s.db == nil {
		return time.Time{}, false
	}
	v, err := s.db.GetMetadata(lastFetchKey(customerID))
	if err != nil || v == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Invalidate drops the cached page of one customer, e.g. on logout.
func (s *OrderService) Invalidate(customerID string) {
	s.cache.Delete(ordersCacheKey(customerID))
}

// Customer fetches the customer record. A failure yields nil plus a notice.
func (s *OrderService) Customer(ctx context.Context, sess internal.Session) (map[string]any, []Notice) {
	record, err := s.source.GetCustomer(ctx, sess.CustomerID)
	if err != nil {
		s.logger.Warn("fetch customer failed", zap.String("customerId", sess.CustomerID), zap.Error(err))
		return nil, []Notice{upstreamNotice("customer info", err)}
	}
	return record, nil
}

// Recommend asks for products related to the items of one order.
func (s *OrderService) Recommend(ctx context.Context, sess internal.Session, orderID string) ([]string, []Notice) {
	page, _ := s.Load(ctx, sess, false)
	summary, ok := page.Book.Summary(orderID)
	if !ok {
		return nil, []Notice{noticef(NoticeError, "Order %s was not found.", orderID)}
	}
	if len(summary.ProductNames) == 0 {
		return nil, []Notice{noticef(NoticeWarning, "No product names found in this order.")}
	}

	start := time.Now()
	run := internal.RunRow{
		TraceID:    uuid.NewString(),
		CustomerID: sess.CustomerID,
		Kind:       internal.RunRecommendations,
		Counts:     map[string]int{"products": len(summary.ProductNames)},
	}
	recs, err := s.source.GetRecommendations(ctx, sess.CustomerID, summary.ProductNames)
	if err != nil {
		s.logger.Warn("fetch recommendations failed", zap.String("customerId", sess.CustomerID), zap.String("orderId", orderID), zap.Error(err))
		run.Outcome = "upstream_error"
		s.recordRun(run, start)
		return nil, []Notice{noticef(NoticeInfo, "No recommendations available at this time.")}
	}
	run.Counts["recommended"] = len(recs)
	run.Outcome = "ok"
	s.recordRun(run, start)
	if len(recs) == 0 {
		return nil, []Notice{noticef(NoticeInfo, "No recommendations available at this time.")}
	}
	return recs, nil
}

// CustomerName picks a display name from a customer record.
func CustomerName(record map[string]any) string {
	for _, key := range customerNameKeys {
		if v, ok := record[key]; ok {
			if name := strings.TrimSpace(util.StringValue(v)); name != "" {
				return name
			}
		}
	}
	return ""
}

func (s *OrderService) recordRun(run internal.RunRow, start time.Time) {
	if s.db == nil {
		return
	}
	run.TotalMs = float64(time.Since(start).Milliseconds())
	if err := s.db.InsertRun(run); err != nil {
		s.logger.Error("record run failed", zap.String("traceId", run.TraceID), zap.Error(err))
	}
}

func ordersCacheKey(customerID string) string {
	return "orders:" + customerID
}

func lastFetchKey(customerID string) string {
	return "orders.last_fetch." + customerID
}

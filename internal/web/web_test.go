package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"portal/internal/config"
	"portal/internal/metrics"
	"portal/internal/pipeline"
	"portal/internal/session"
	"portal/internal/upstream"
)

type fakeUpstream struct {
	orders      []json.RawMessage
	ordersCalls int
	customer    map[string]any
	recs        []string
	supplier    json.RawMessage
	supplierErr error
	healthy     bool
}

func (f *fakeUpstream) GetOrders(ctx context.Context, customerID string) ([]json.RawMessage, error) {
	f.ordersCalls++
	return f.orders, nil
}

func (f *fakeUpstream) GetCustomer(ctx context.Context, customerID string) (map[string]any, error) {
	return f.customer, nil
}

func (f *fakeUpstream) GetRecommendations(ctx context.Context, customerID string, productNames []string) ([]string, error) {
	return f.recs, nil
}

func (f *fakeUpstream) GetProductSupplier(ctx context.Context, productID string) (json.RawMessage, error) {
	return f.supplier, f.supplierErr
}

func (f *fakeUpstream) Health(ctx context.Context) bool {
	return f.healthy
}

type testPortal struct {
	server   *Server
	src      *fakeUpstream
	sessions *session.Manager
}

func newTestPortal(t *testing.T, src *fakeUpstream) *testPortal {
	t.Helper()
	sessions, err := session.NewManager("test-secret", time.Hour, "")
	if err != nil {
		t.Fatal(err)
	}
	reg := metrics.NewRegistry()
	orders := pipeline.NewOrderService(src, nil, reg, nil, time.Minute)
	suppliers := pipeline.NewSupplierService(src, nil, reg, nil)
	server := NewServer(config.Config{Addr: ":0"}, nil, orders, suppliers, sessions, reg, src)
	return &testPortal{server: server, src: src, sessions: sessions}
}

func (p *testPortal) do(t *testing.T, method, target string, form url.Values, customerID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if customerID != "" {
		token, _, err := p.sessions.Login(customerID, "")
		if err != nil {
			t.Fatal(err)
		}
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	p.server.Handler().ServeHTTP(rec, req)
	return rec
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func sampleOrders() []json.RawMessage {
	return []json.RawMessage{
		json.RawMessage(`{"OrderID":10248,"OrderDate":"2024-01-05","Status":"Shipped","ProductName":"Chai","Price":18,"Quantity":2}`),
		json.RawMessage(`{"OrderID":10248,"OrderDate":"2024-01-05","Status":"Shipped","ProductName":"Tofu","Price":23.25,"Quantity":1}`),
		json.RawMessage(`{"data":"{\"OrderID\":10249,\"OrderDate\":\"2024-02-10\",\"Status\":\"Pending\",\"ProductName\":\"Konbu\",\"Price\":6,\"Quantity\":5}"}`),
		json.RawMessage(`"{broken"`),
	}
}

func TestHealth(t *testing.T) {
	cases := []struct {
		name    string
		healthy bool
		status  int
	}{
		{name: "upstream up", healthy: true, status: http.StatusOK},
		{name: "upstream down", healthy: false, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPortal(t, &fakeUpstream{healthy: tc.healthy})
			rec := p.do(t, http.MethodGet, "/health", nil, "")
			if rec.Code != tc.status {
				t.Fatalf("status=%d", rec.Code)
			}
		})
	}
}

func TestPortalRequiresSession(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{})
	for _, target := range []string{"/", "/orders", "/lookup", "/orders/export.xlsx"} {
		rec := p.do(t, http.MethodGet, target, nil, "")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s: status=%d location=%q", target, rec.Code, rec.Header().Get("Location"))
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "forged"})
	rec := httptest.NewRecorder()
	p.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("forged cookie status=%d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{})

	rec := p.do(t, http.MethodPost, "/login", url.Values{"customer_id": {"ALFKI"}}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := document(t, rec).Find("#login-error").Text(); got != "Please enter a valid customer ID." {
		t.Fatalf("error=%q", got)
	}

	rec = p.do(t, http.MethodPost, "/login", url.Values{"customer_id": {" 42 "}, "password": {"x"}}, "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/orders" {
		t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			token = c.Value
		}
	}
	sess, err := p.sessions.Parse(token)
	if err != nil || sess.CustomerID != "42" {
		t.Fatalf("session=%+v err=%v", sess, err)
	}

	rec = p.do(t, http.MethodGet, "/login", nil, "42")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logged-in /login status=%d", rec.Code)
	}
}

func TestOrdersPage(t *testing.T) {
	src := &fakeUpstream{orders: sampleOrders(), customer: map[string]any{"ContactName": "Maria Anders"}}
	p := newTestPortal(t, src)

	rec := p.do(t, http.MethodGet, "/orders", nil, "42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	doc := document(t, rec)

	if got := doc.Find("#customer-name").Text(); got != "Maria Anders" {
		t.Fatalf("customer=%q", got)
	}
	cards := map[string]string{
		"total-orders":  "2",
		"active-orders": "1",
		"total-spent":   "$89.25",
		"total-items":   "3",
	}
	for card, want := range cards {
		got := strings.TrimSpace(doc.Find(`[data-card="` + card + `"] .value`).Text())
		if got != want {
			t.Fatalf("%s=%q want %q", card, got, want)
		}
	}
	if got := doc.Find(".notice-warning").Text(); got != "1 item(s) could not be loaded properly." {
		t.Fatalf("warning=%q", got)
	}

	orders := doc.Find("details.order")
	if orders.Length() != 2 {
		t.Fatalf("orders=%d", orders.Length())
	}
	if id, _ := orders.First().Attr("data-order-id"); id != "10249" {
		t.Fatalf("newest order first, got %s", id)
	}
	first := doc.Find(`details[data-order-id="10248"]`)
	if got := first.Find(".order-total").Text(); got != "$59.25" {
		t.Fatalf("total=%q", got)
	}
	if rows := first.Find("table.items tbody tr").Length(); rows != 2 {
		t.Fatalf("item rows=%d", rows)
	}
	if options := doc.Find(`select[name="status"] option`).Length(); options != 3 {
		t.Fatalf("status options=%d", options)
	}
}

func TestOrdersPageFilters(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{orders: sampleOrders()})
	cases := []struct {
		query string
		want  int
	}{
		{query: "status=Pending", want: 1},
		{query: "status=All", want: 2},
		{query: "from=2024-01-01&to=2024-01-31", want: 1},
		{query: "from=2024-01-01", want: 2},
		{query: "from=bogus&to=2024-01-31", want: 2},
		{query: "q=+248+", want: 1},
		{query: "q=nothing", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := p.do(t, http.MethodGet, "/orders?"+tc.query, nil, "42")
			if got := document(t, rec).Find("details.order").Length(); got != tc.want {
				t.Fatalf("orders=%d want %d", got, tc.want)
			}
		})
	}
	if p.src.ordersCalls != 1 {
		t.Fatalf("filters should reuse the cached fetch, calls=%d", p.src.ordersCalls)
	}

	p.do(t, http.MethodGet, "/orders?refresh=1", nil, "42")
	if p.src.ordersCalls != 2 {
		t.Fatalf("refresh calls=%d", p.src.ordersCalls)
	}
}

func TestRecommendations(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{orders: sampleOrders(), recs: []string{"Chang", "Ikura"}})

	rec := p.do(t, http.MethodPost, "/orders/10248/recommendations", url.Values{}, "42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	order := document(t, rec).Find(`details[data-order-id="10248"]`)
	if _, open := order.Attr("open"); !open {
		t.Fatal("order should be expanded")
	}
	items := order.Find(".recommendations li")
	if items.Length() != 2 || items.First().Text() != "Chang" {
		t.Fatalf("recommendations=%q", items.Text())
	}

	p.src.recs = nil
	rec = p.do(t, http.MethodPost, "/orders/10249/recommendations", url.Values{}, "42")
	order = document(t, rec).Find(`details[data-order-id="10249"]`)
	if got := order.Find(".notice-info").Text(); got != "No recommendations available at this time." {
		t.Fatalf("notice=%q", got)
	}
}

func TestRecommendationsForEscapedOrderID(t *testing.T) {
	const id = "A/1?x #2"
	src := &fakeUpstream{
		orders: []json.RawMessage{json.RawMessage(`{"OrderID":"A/1?x #2","OrderDate":"2024-03-01","Status":"Pending","ProductName":"Chai","Price":18,"Quantity":1}`)},
		recs:   []string{"Chang"},
	}
	p := newTestPortal(t, src)

	page := document(t, p.do(t, http.MethodGet, "/orders?status=Pending", nil, "42"))
	action, ok := page.Find(`details[data-order-id="A/1?x #2"] form`).Attr("action")
	if !ok {
		t.Fatal("recommendation form missing")
	}
	if want := "/orders/" + url.PathEscape(id) + "/recommendations?status=Pending"; action != want {
		t.Fatalf("action=%q want %q", action, want)
	}

	rec := p.do(t, http.MethodPost, action, url.Values{}, "42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	items := document(t, rec).Find(`details[data-order-id="A/1?x #2"] .recommendations li`)
	if items.Length() != 1 || items.Text() != "Chang" {
		t.Fatalf("recommendations=%q", items.Text())
	}
}

func TestExportOrders(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{orders: sampleOrders()})

	rec := p.do(t, http.MethodGet, "/orders/export.xlsx?status=Shipped", nil, "42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxType {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "orders-42-") {
		t.Fatalf("content-disposition=%q", cd)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Orders")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "10248" {
		t.Fatalf("rows=%v", rows)
	}
}

func TestLookupPage(t *testing.T) {
	cases := []struct {
		name     string
		target   string
		src      *fakeUpstream
		selector string
		want     string
	}{
		{
			name:     "known supplier",
			target:   "/lookup?product_id=11",
			src:      &fakeUpstream{supplier: json.RawMessage(`{"supplier":{"CompanyName":"Acme","C_Phone":5551234567,"C_Region":"North"}}`)},
			selector: "#supplier-card h2",
			want:     "Acme",
		},
		{
			name:     "additional fields",
			target:   "/lookup?product_id=11",
			src:      &fakeUpstream{supplier: json.RawMessage(`{"supplier":{"CompanyName":"Acme","C_Region":"North"}}`)},
			selector: ".additional li",
			want:     "Region: North",
		},
		{
			name:     "unexpected shape",
			target:   "/lookup?product_id=12",
			src:      &fakeUpstream{supplier: json.RawMessage(`{"foo":"bar"}`)},
			selector: ".notice-error",
			want:     "Unexpected data format received",
		},
		{
			name:     "upstream failure",
			target:   "/lookup?product_id=13",
			src:      &fakeUpstream{supplierErr: &upstream.StatusError{Endpoint: "supplier", StatusCode: 404}},
			selector: ".notice-error",
			want:     "Error fetching supplier info: 404",
		},
		{
			name:     "blank product",
			target:   "/lookup?product_id=+",
			src:      &fakeUpstream{},
			selector: ".notice-warning",
			want:     "Enter a product ID to search.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPortal(t, tc.src)
			rec := p.do(t, http.MethodGet, tc.target, nil, "42")
			if rec.Code != http.StatusOK {
				t.Fatalf("status=%d", rec.Code)
			}
			if got := strings.TrimSpace(document(t, rec).Find(tc.selector).Text()); got != tc.want {
				t.Fatalf("%s=%q want %q", tc.selector, got, tc.want)
			}
		})
	}
}

func TestLookupRendersRawPayload(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{supplier: json.RawMessage(`{"foo":"bar"}`)})
	doc := document(t, p.do(t, http.MethodGet, "/lookup?product_id=5", nil, "42"))
	if !strings.Contains(doc.Find("pre.raw-json").Text(), `"foo": "bar"`) {
		t.Fatalf("raw=%q", doc.Find("pre.raw-json").Text())
	}

	doc = document(t, p.do(t, http.MethodGet, "/lookup", nil, "42"))
	if doc.Find(".notice").Length() != 0 {
		t.Fatal("form without a search should not show notices")
	}
}

func TestLogoutDropsCachedOrders(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{orders: sampleOrders()})
	p.do(t, http.MethodGet, "/orders", nil, "42")

	rec := p.do(t, http.MethodPost, "/logout", url.Values{}, "42")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("session cookie not cleared")
	}

	p.do(t, http.MethodGet, "/orders", nil, "42")
	if p.src.ordersCalls != 2 {
		t.Fatalf("calls=%d", p.src.ordersCalls)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	p := newTestPortal(t, &fakeUpstream{healthy: true})
	p.do(t, http.MethodGet, "/health", nil, "")

	rec := p.do(t, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `portal_http_requests_total{route="/health",status="200"} 1`) {
		t.Fatalf("metrics body missing request counter:\n%s", rec.Body.String())
	}
}

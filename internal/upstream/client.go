package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"portal/internal/config"
)

const healthTimeout = 5 * time.Second

// Endpoint names used for errors and metrics labels.
const (
	EndpointOrders          = "orders"
	EndpointCustomer        = "customer"
	EndpointSupplier        = "supplier"
	EndpointRecommendations = "recommendations"
	EndpointHealth          = "health"
)

var ErrMissingToken = errors.New("missing UPSTREAM_TOKEN")

// StatusError is returned for any upstream answer other than 200 OK.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.StatusCode)
}

// Observer receives one call per finished upstream request.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, latency time.Duration)
}

// Client talks to the order API and the recommendation service. Only the
// order API client carries the bearer token.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	recsClient *http.Client
	limiter    *RateLimiter
	observer   Observer
}

type ordersPayload struct {
	Orders []json.RawMessage `json:"orders"`
}

type recommendationRequest struct {
	CustomerID      string   `json:"customer_id"`
	PurchaseHistory []string `json:"purchase_history"`
}

type recommendationPayload struct {
	RecommendedProducts []string `json:"recommended_products"`
}

func NewClient(cfg config.Config) *Client {
	return newClient(cfg, http.DefaultTransport)
}

func newClient(cfg config.Config, base http.RoundTripper) *Client {
	transport := base
	if strings.TrimSpace(cfg.UpstreamToken) != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.UpstreamToken, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout(), Transport: transport},
		recsClient: &http.Client{Timeout: cfg.UpstreamTimeout(), Transport: base},
		limiter:    NewRateLimiter(cfg.UpstreamRateLimitRPS),
	}
}

func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// GetOrders returns the raw order rows for one customer, undecoded.
func (c *Client) GetOrders(ctx context.Context, customerID string) ([]json.RawMessage, error) {
	body, err := c.fetch(ctx, EndpointOrders, http.MethodGet, c.apiURL("orders", map[string]string{"customer_id": customerID}), nil)
	if err != nil {
		return nil, err
	}
	var payload ordersPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}
	return payload.Orders, nil
}

// GetCustomer returns the customer record, or nil when the upstream answers null.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (map[string]any, error) {
	body, err := c.fetch(ctx, EndpointCustomer, http.MethodGet, c.apiURL("customers/"+url.PathEscape(customerID), nil), nil)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode customer response: %w", err)
	}
	return out, nil
}

// GetProductSupplier returns the supplier payload as received. It may be a
// JSON object or a JSON string holding an object.
func (c *Client) GetProductSupplier(ctx context.Context, productID string) (json.RawMessage, error) {
	endpoint := "products/" + url.PathEscape(productID) + "/supplier"
	body, err := c.fetch(ctx, EndpointSupplier, http.MethodGet, c.apiURL(endpoint, nil), nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) GetRecommendations(ctx context.Context, customerID string, productNames []string) ([]string, error) {
	blob, err := json.Marshal(recommendationRequest{CustomerID: customerID, PurchaseHistory: productNames})
	if err != nil {
		return nil, err
	}
	u := strings.TrimRight(c.cfg.RecommendationBaseURL, "/") + "/api/recommendations/customer"
	body, err := c.fetch(ctx, EndpointRecommendations, http.MethodPost, u, blob)
	if err != nil {
		return nil, err
	}
	var payload recommendationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode recommendations response: %w", err)
	}
	return payload.RecommendedProducts, nil
}

// Health reports whether the order API answers its health probe.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	_, err := c.fetch(ctx, EndpointHealth, http.MethodGet, c.apiURL("health", nil), nil)
	return err == nil
}

func (c *Client) apiURL(endpoint string, params map[string]string) string {
	u := strings.TrimRight(c.cfg.UpstreamBaseURL, "/") + "/" + endpoint
	if len(params) == 0 {
		return u
	}
	q := url.Values{}
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	return u + "?" + q.Encode()
}

// fetch performs exactly one request. There is no retry: callers surface
// the error and render an empty section.
func (c *Client) fetch(ctx context.Context, endpoint, method, rawURL string, payload []byte) ([]byte, error) {
	if needsToken(endpoint) && strings.TrimSpace(c.cfg.UpstreamToken) == "" {
		return nil, ErrMissingToken
	}
	if err := c.limiter.WaitTurn(ctx); err != nil {
		return nil, fmt.Errorf("upstream %s: %w", endpoint, err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.clientFor(endpoint).Do(req)
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		return nil, fmt.Errorf("upstream %s: %w", endpoint, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		c.observe(endpoint, "transport_error", start)
		return nil, fmt.Errorf("upstream %s: read body: %w", endpoint, readErr)
	}

	if resp.StatusCode != http.StatusOK {
		c.observe(endpoint, "status_error", start)
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}
	c.observe(endpoint, "ok", start)
	return body, nil
}

func needsToken(endpoint string) bool {
	return endpoint != EndpointHealth && endpoint != EndpointRecommendations
}

// clientFor keeps the order API token away from the recommendation host.
func (c *Client) clientFor(endpoint string) *http.Client {
	if endpoint == EndpointRecommendations {
		return c.recsClient
	}
	return c.httpClient
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg              *prometheus.Registry
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	OrderRows        *prometheus.CounterVec
	SupplierLookups  *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	upstreamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_upstream_requests_total",
		Help: "Upstream API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_upstream_latency_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	orderRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_order_rows_total",
		Help: "Order rows seen by the normalizer, by result.",
	}, []string{"result"})
	supplierLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_supplier_lookups_total",
	}, []string{"outcome"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
	}, []string{"route", "status"})

	r.MustRegister(upstreamRequests, upstreamLatency, orderRows, supplierLookups, httpRequests)
	return &Registry{
		reg:              r,
		UpstreamRequests: upstreamRequests,
		UpstreamLatency:  upstreamLatency,
		OrderRows:        orderRows,
		SupplierLookups:  supplierLookups,
		HTTPRequests:     httpRequests,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// ObserveUpstream satisfies upstream.Observer.
func (r *Registry) ObserveUpstream(endpoint, outcome string, latency time.Duration) {
	if r == nil {
		return
	}
	r.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	r.UpstreamLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

func (r *Registry) ObserveRows(decoded, failed, unkeyed int) {
	if r == nil {
		return
	}
	r.OrderRows.WithLabelValues("decoded").Add(float64(decoded))
	r.OrderRows.WithLabelValues("failed").Add(float64(failed))
	r.OrderRows.WithLabelValues("unkeyed").Add(float64(unkeyed))
}

func (r *Registry) ObserveLookup(outcome string) {
	if r == nil {
		return
	}
	r.SupplierLookups.WithLabelValues(outcome).Inc()
}

func (r *Registry) ObserveHTTP(route string, status int) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

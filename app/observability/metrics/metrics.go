package metrics

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPDurationSeconds metric.Float64Histogram
	AuthFailuresTotal   metric.Int64Counter
	CacheHitsTotal      metric.Int64Counter
	CacheMissesTotal    metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the metric instruments once, using the meter
// from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("auth-service")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPDurationSeconds, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthFailuresTotal, err = meter.Int64Counter(
			"auth_failures_total",
			metric.WithDescription("Total number of rejected authentication attempts"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_failures_total: %v", err)
		}

		m.CacheHitsTotal, err = meter.Int64Counter(
			"cache_hits_total",
			metric.WithDescription("Total number of cache reads served from redis"),
			metric.WithUnit("{read}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create cache_hits_total: %v", err)
		}

		m.CacheMissesTotal, err = meter.Int64Counter(
			"cache_misses_total",
			metric.WithDescription("Total number of cache reads that fell through to the store"),
			metric.WithUnit("{read}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create cache_misses_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized AppMetrics instance. Panics if InitAppMetrics
// was not called at startup.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// Current returns the instruments if initialized, or nil. Callers that may
// run before startup wiring (repositories under test) use this with the
// nil-safe recorders below.
func Current() *AppMetrics {
	return appMetrics
}

// CacheHit records a cache read served from redis. Safe on a nil receiver.
func (m *AppMetrics) CacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Add(ctx, 1)
}

// CacheMiss records a cache read that fell through to the store. Safe on a
// nil receiver.
func (m *AppMetrics) CacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Add(ctx, 1)
}

// RequestMetrics records a counter and a duration histogram per request,
// labeled by method and status class.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		m := Get()
		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("status", strconv.Itoa(ww.Status())),
		)
		m.HTTPRequestsTotal.Add(r.Context(), 1, attrs)
		m.HTTPDurationSeconds.Record(r.Context(), time.Since(start).Seconds(), attrs)
		if ww.Status() == http.StatusUnauthorized || ww.Status() == http.StatusForbidden {
			m.AuthFailuresTotal.Add(r.Context(), 1, attrs)
		}
	})
}

package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(
		meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(
		meter,
		"http_server_request_duration_seconds",
		"HTTP request latency distribution in seconds",
		"s",
		telemetry.HTTPDurationBuckets,
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics collects request count, latency and in-flight requests.
// A nil or disabled provider yields a pass-through middleware.
func HTTPMetrics(provider *telemetry.MeterProvider) gin.HandlerFunc {
	if provider == nil || !provider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(provider.Meter("http.server"))
}

// HTTPMetricsWithMeter returns HTTP metrics middleware using an existing meter.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		recordHTTPMetrics(ctx, metrics, c.Request.Method, getRoutePattern(c), c.Writer.Status(), GetJWTCompanyID(c), time.Since(start))
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

func recordHTTPMetrics(ctx context.Context, metrics *httpMetrics, method, route string, status int, companyID *int64, took time.Duration) {
	requestAttrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPRoute.String(route),
		telemetry.AttrHTTPStatusCode.Int(status),
	}
	if companyID != nil {
		requestAttrs = append(requestAttrs, telemetry.AttrCompanyID.String(strconv.FormatInt(*companyID, 10)))
	}
	metrics.requestTotal.Inc(ctx, requestAttrs...)

	metrics.requestDuration.RecordDuration(ctx, took,
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPRoute.String(route),
	)
}

// getRoutePattern returns the matched route pattern to keep cardinality low
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

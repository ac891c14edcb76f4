package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	PlanRequestsTotal      metric.Int64Counter
	EditRequestsTotal      metric.Int64Counter
	ExplainRequestsTotal   metric.Int64Counter
	RequestDurationSeconds metric.Float64Histogram
	ProviderFallbacksTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, using
// the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("VoiceTravelPlanner")
		var err error
		m := &AppMetrics{}

		m.PlanRequestsTotal, err = meter.Int64Counter(
			"plan_requests_total",
			metric.WithDescription("Total number of plan requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_requests_total: %v", err)
		}

		m.EditRequestsTotal, err = meter.Int64Counter(
			"edit_requests_total",
			metric.WithDescription("Total number of edit requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create edit_requests_total: %v", err)
		}

		m.ExplainRequestsTotal, err = meter.Int64Counter(
			"explain_requests_total",
			metric.WithDescription("Total number of explain requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create explain_requests_total: %v", err)
		}

		m.RequestDurationSeconds, err = meter.Float64Histogram(
			"request_duration_seconds",
			metric.WithDescription("Duration of planner requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create request_duration_seconds: %v", err)
		}

		m.ProviderFallbacksTotal, err = meter.Int64Counter(
			"provider_fallbacks_total",
			metric.WithDescription("Total number of provider calls that degraded to a fallback"),
			metric.WithUnit("{fallback}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_fallbacks_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance. Panics if
// InitAppMetrics was not called at startup.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

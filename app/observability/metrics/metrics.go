package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	GenerationRequestsTotal   metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	ModelAttemptsTotal        metric.Int64Counter
	ModelFailuresTotal        metric.Int64Counter
	StoreQueryDurationSeconds metric.Float64Histogram
	StoreQueryErrorsTotal     metric.Int64Counter
	EnrichmentLookupsTotal    metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Before a provider is installed the instruments are no-ops.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripPlanner")
		m := &AppMetrics{}

		m.GenerationRequestsTotal = mustCounter(meter, "trip_generation_requests_total",
			"Trip generations by final state", "{request}")
		m.GenerationDurationSeconds = mustHistogram(meter, "trip_generation_duration_seconds",
			"Duration of trip generations in seconds")
		m.ModelAttemptsTotal = mustCounter(meter, "model_attempts_total",
			"Model invocations per credential and model pair", "{attempt}")
		m.ModelFailuresTotal = mustCounter(meter, "model_failures_total",
			"Failed model invocations by failure class", "{error}")
		m.StoreQueryDurationSeconds = mustHistogram(meter, "store_query_duration_seconds",
			"Duration of document store operations in seconds")
		m.StoreQueryErrorsTotal = mustCounter(meter, "store_query_errors_total",
			"Total number of document store errors", "{error}")
		m.EnrichmentLookupsTotal = mustCounter(meter, "enrichment_lookups_total",
			"Enrichment lookups by kind and result", "{lookup}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

func mustCounter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// Get returns the instruments, creating them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"wealthreactor/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	reservationsCounter     metric.Int64Counter
	verificationsCounter    metric.Int64Counter
	oracleDurationHist      metric.Float64Histogram
	commissionsCounter      metric.Int64Counter
	rotatorJoinsCounter     metric.Int64Counter
	rotatorFeaturedCounter  metric.Int64Counter
	eventsPublishedCounter  metric.Int64Counter
	httpRequestsCounter     metric.Int64Counter
	httpRequestDurationHist metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	interval := time.Duration(mp.config.OTelExportIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return mp.start(res, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
}

// start builds the meter provider over a reader; callers hold mp.mu
func (mp *MetricsProvider) start(res *resource.Resource, reader sdkmetric.Reader) error {
	opts := []sdkmetric.Option{sdkmetric.WithReader(reader)}
	if res != nil {
		opts = append(opts, sdkmetric.WithResource(res))
	}
	mp.meterProvider = sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("wealthreactor")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.reservationsCounter, ReservationsTotal, "Total number of username reservation attempts"},
		{&mp.verificationsCounter, PaymentVerificationsTotal, "Total number of payment verifications by outcome"},
		{&mp.commissionsCounter, CommissionsCreditedTotal, "Total number of commissions credited"},
		{&mp.rotatorJoinsCounter, RotatorJoinsTotal, "Total number of rotator lease grants"},
		{&mp.rotatorFeaturedCounter, RotatorFeaturedTotal, "Total number of featured picks"},
		{&mp.eventsPublishedCounter, EventsPublishedTotal, "Total number of events published to NATS"},
		{&mp.httpRequestsCounter, HTTPRequestsTotal, "Total number of HTTP requests"},
	}

	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(
			c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	mp.oracleDurationHist, err = mp.meter.Float64Histogram(
		OracleCallDuration,
		metric.WithDescription("Duration of payment oracle calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0, 30.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create oracle duration histogram: %w", err)
	}

	mp.httpRequestDurationHist, err = mp.meter.Float64Histogram(
		HTTPRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordReservation records a username reservation attempt
func (mp *MetricsProvider) RecordReservation(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.reservationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordPaymentVerification records the outcome of a verify-payment request
func (mp *MetricsProvider) RecordPaymentVerification(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.verificationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordOracleCall records a payment oracle call with duration
func (mp *MetricsProvider) RecordOracleCall(strategy, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.oracleDurationHist.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String(LabelStrategy, strategy),
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// RecordCommissionCredited records an inserted commission
func (mp *MetricsProvider) RecordCommissionCredited(level int) {
	if !mp.isEnabled() {
		return
	}

	mp.commissionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int(LabelLevel, level)),
	)
}

// RecordRotatorJoin records a lease grant or extension
func (mp *MetricsProvider) RecordRotatorJoin(extended bool) {
	if !mp.isEnabled() {
		return
	}

	mp.rotatorJoinsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool(LabelExtended, extended)),
	)
}

// RecordFeaturedPick records a featured pick, empty when the rotator had no members
func (mp *MetricsProvider) RecordFeaturedPick(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.rotatorFeaturedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordEventPublished records an event published to NATS
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.eventsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordHTTPRequest records a served HTTP request with duration
func (mp *MetricsProvider) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelMethod, method),
		attribute.String(LabelRoute, route),
		attribute.String(LabelStatus, strconv.Itoa(status)),
	)

	mp.httpRequestsCounter.Add(context.Background(), 1, attrs)
	mp.httpRequestDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// MeasureOracleCall returns a function that records the call duration with its outcome
// Usage:
//
//	done := mp.MeasureOracleCall("logscan")
//	defer func() { done(outcome) }()
func (mp *MetricsProvider) MeasureOracleCall(strategy string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		mp.RecordOracleCall(strategy, outcome, time.Since(start))
	}
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider; nil until initialized.
// Every Record method is safe on a nil provider.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}

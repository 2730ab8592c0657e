// Package telemetry wires OpenTelemetry tracing and metrics. Exporters write
// to rotated files next to the diagnostic log.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
	serviceName    = "hivechat"
	serviceVersion = "1.0.0"
)

// Telemetry bundles the tracer and the instruments used across the client
type Telemetry struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	requests      metric.Int64Counter
	requestErrors metric.Int64Counter
	latency       metric.Float64Histogram
	frames        metric.Int64Counter
	sends         metric.Int64Counter
}

// Init sets up file-backed trace and metric exporters in dir. The returned
// cleanup flushes providers and closes the files.
func Init(ctx context.Context, dir string) (*Telemetry, func(), error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	traceFile := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "hivechat_traces.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(traceFile),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricsFile := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "hivechat_metrics.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	metricExporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(metricsFile),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				metricExporter,
				sdkmetric.WithInterval(30*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	tel, err := newTelemetry(tp.Tracer(serviceName), mp.Meter(serviceName))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown meter provider", "error", err)
		}
		if err := traceFile.Close(); err != nil {
			slog.Error("failed to close trace file", "error", err)
		}
		if err := metricsFile.Close(); err != nil {
			slog.Error("failed to close metrics file", "error", err)
		}
	}

	return tel, cleanup, nil
}

// Noop returns a Telemetry whose tracer and instruments record nothing
func Noop() *Telemetry {
	tel, _ := newTelemetry(tracenoop.NewTracerProvider().Tracer(serviceName), metricnoop.NewMeterProvider().Meter(serviceName))
	return tel
}

// OrNoop returns t, or a no-op Telemetry when t is nil
func OrNoop(t *Telemetry) *Telemetry {
	if t == nil {
		return Noop()
	}
	return t
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*Telemetry, error) {
	t := &Telemetry{Tracer: tracer, Meter: meter}

	var err error
	if t.requests, err = meter.Int64Counter("hivechat.api.requests",
		metric.WithDescription("REST requests issued")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.requestErrors, err = meter.Int64Counter("hivechat.api.errors",
		metric.WithDescription("REST requests that failed")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.latency, err = meter.Float64Histogram("hivechat.api.latency",
		metric.WithDescription("REST request latency"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	if t.frames, err = meter.Int64Counter("hivechat.socket.frames",
		metric.WithDescription("Socket frames received")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.sends, err = meter.Int64Counter("hivechat.chat.sends",
		metric.WithDescription("Chat messages sent")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return t, nil
}

// RecordRequest records one REST call
func (t *Telemetry) RecordRequest(ctx context.Context, endpoint string, status int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	)
	t.requests.Add(ctx, 1, attrs)
	t.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if err != nil {
		t.requestErrors.Add(ctx, 1, attrs)
	}
}

// RecordFrame counts one inbound socket frame of the given kind
func (t *Telemetry) RecordFrame(ctx context.Context, socket, kind string) {
	t.frames.Add(ctx, 1, metric.WithAttributes(
		attribute.String("socket", socket),
		attribute.String("kind", kind),
	))
}

// RecordSend counts one chat send attempt
func (t *Telemetry) RecordSend(ctx context.Context, model string, ok bool) {
	t.sends.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("ok", ok),
	))
}

// Package telemetry sets up OpenTelemetry tracing for the relay.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceName identifies the relay in exported spans.
const ServiceName = "judge0-llm-relay"

type tracerOptions struct {
	writer io.Writer
	pretty bool
	sync   bool
}

// Option configures InitTracer.
type Option func(*tracerOptions)

// WithWriter sends spans to w instead of stdout. Spans are exported synchronously so
// the output is complete as soon as a span ends.
func WithWriter(w io.Writer) Option {
	return func(o *tracerOptions) {
		o.writer = w
		o.sync = true
	}
}

// WithCompactOutput disables pretty printing.
func WithCompactOutput() Option {
	return func(o *tracerOptions) {
		o.pretty = false
	}
}

// InitTracer installs a global tracer provider exporting to stdout and returns its
// shutdown function.
func InitTracer(serviceName string, logger *slog.Logger, opts ...Option) (func(context.Context) error, error) {
	o := tracerOptions{pretty: true}
	for _, opt := range opts {
		opt(&o)
	}

	exporterOpts := []stdouttrace.Option{}
	if o.pretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	if o.writer != nil {
		exporterOpts = append(exporterOpts, stdouttrace.WithWriter(o.writer))
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	processor := sdktrace.WithBatcher(exporter)
	if o.sync {
		processor = sdktrace.WithSyncer(exporter)
	}
	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized", slog.String("service", serviceName))

	return tp.Shutdown, nil
}

// HTTPClient returns base (or a new client when nil) with its transport wrapped for
// outbound spans.
func HTTPClient(base *http.Client) *http.Client {
	client := &http.Client{}
	if base != nil {
		clone := *base
		client = &clone
	}
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(transport)
	return client
}

package monitoring

import (
	"context"

	"github.com/hirestore/hs-order/config"
	"github.com/hirestore/hs-order/pkg/applogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Monitoring interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
}

type openTelemetry struct {
	serviceName string
	environment string
	projectID   string
	provider    *sdktrace.TracerProvider
}

func NewOpenTelemetry(serviceName, environment, projectID string) Monitoring {
	return &openTelemetry{
		serviceName: serviceName,
		environment: environment,
		projectID:   projectID,
	}
}

// Start installs the global tracer provider. A failing exporter only disables
// tracing, the service keeps running.
func (o *openTelemetry) Start(ctx context.Context) {
	logger := applogger.GetLogrus()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(config.Get().OTEL.CollectorEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("unable to create trace exporter")
		return
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(o.serviceName),
		semconv.DeploymentEnvironment(o.environment),
		attribute.String("gcp.project_id", o.projectID),
	))
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("unable to merge trace resource")
		res = resource.Default()
	}

	o.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(o.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func (o *openTelemetry) Stop(ctx context.Context) {
	if o.provider == nil {
		return
	}

	if err := o.provider.Shutdown(ctx); err != nil {
		applogger.GetLogrus().WithContext(ctx).WithError(err).Error()
	}
}

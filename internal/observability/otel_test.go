package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/bazaargah/go-bazaar-backend/internal/config"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func tracingConfig() config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: "bazaar-api",
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	restoreGlobals(t)

	cfg := tracingConfig()
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "dev")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must be callable even when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := SetupOTel(context.Background(), tracingConfig(), "1.4.0")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("tracer provider = %T; want *sdktrace.TracerProvider", otel.GetTracerProvider())
	}

	// Round-trip a span context through the installed propagator.
	ctx, span := otel.Tracer("bazaar").Start(context.Background(), "listings.search",
		trace.WithSpanKind(trace.SpanKindInternal))
	span.End()
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Fatal("traceparent not injected")
	}
}

func TestSetupOTel_TLSEndpoint(t *testing.T) {
	restoreGlobals(t)

	cfg := tracingConfig()
	cfg.Insecure = false
	shutdown, err := SetupOTel(context.Background(), cfg, "1.4.0")
	if err != nil {
		t.Fatalf("SetupOTel with TLS: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestSetupOTel_SetupErrorsLeaveGlobalsAlone(t *testing.T) {
	restoreGlobals(t)

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	t.Run("exporter", func(t *testing.T) {
		orig := newTraceExporter
		defer func() { newTraceExporter = orig }()
		newTraceExporter = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
			return nil, errors.New("collector unreachable")
		}
		if _, err := SetupOTel(context.Background(), tracingConfig(), "dev"); err == nil {
			t.Fatal("want exporter error")
		}
	})

	t.Run("resource", func(t *testing.T) {
		orig := newTraceResource
		defer func() { newTraceResource = orig }()
		newTraceResource = func(context.Context, string, string) (*resource.Resource, error) {
			return nil, errors.New("bad resource attributes")
		}
		if _, err := SetupOTel(context.Background(), tracingConfig(), "dev"); err == nil {
			t.Fatal("want resource error")
		}
	})

	if otel.GetTracerProvider() != prevTP {
		t.Fatal("tracer provider replaced despite setup failure")
	}
	if otel.GetTextMapPropagator() != prevProp {
		t.Fatal("propagator replaced despite setup failure")
	}
}

package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Flint2004/infinite-crafting/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabledConfig(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prev := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Endpoint: "ignored:4317"}, "v0.0.0")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, prev, otel.GetTracerProvider())
}

func TestSetupOTel_EmptyEndpoint(t *testing.T) {
	preserveOTelGlobals(t)
	cfg := enabledConfig("svc")
	cfg.Endpoint = ""
	_, err := SetupOTel(context.Background(), cfg, "v0")
	require.Error(t, err)
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		t.Run(map[bool]string{true: "insecure", false: "tls"}[insecure], func(t *testing.T) {
			preserveOTelGlobals(t)
			cfg := enabledConfig("infinite-crafting")
			cfg.Insecure = insecure

			shutdown, err := SetupOTel(context.Background(), cfg, "v1.2.3")
			require.NoError(t, err)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()
				_ = shutdown(ctx)
			}()

			_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
			require.True(t, ok, "expected *sdktrace.TracerProvider")

			ctx, span := otel.Tracer("services/CraftService").Start(context.Background(), "Craft")
			carrier := propagation.MapCarrier{}
			otel.GetTextMapPropagator().Inject(ctx, carrier)
			span.End()
			assert.True(t, strings.HasPrefix(carrier.Get("traceparent"), "00-"))
		})
	}
}

func TestSetupOTel_ExporterError_GlobalsIntact(t *testing.T) {
	preserveOTelGlobals(t)
	orig := newTraceExporter
	t.Cleanup(func() { newTraceExporter = orig })
	newTraceExporter = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("boom-exporter")
	}

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	_, err := SetupOTel(context.Background(), enabledConfig("svc"), "v0")
	require.ErrorContains(t, err, "boom-exporter")
	assert.Equal(t, prevTP, otel.GetTracerProvider())
	assert.Equal(t, prevProp, otel.GetTextMapPropagator())
}

func TestSetupOTel_ResourceError_GlobalsIntact(t *testing.T) {
	preserveOTelGlobals(t)
	orig := newResource
	t.Cleanup(func() { newResource = orig })
	newResource = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, errors.New("boom-resource")
	}

	prevTP := otel.GetTracerProvider()

	_, err := SetupOTel(context.Background(), enabledConfig("svc"), "v0")
	require.ErrorContains(t, err, "boom-resource")
	assert.Equal(t, prevTP, otel.GetTracerProvider())
}

func TestShutdown_IsCallable(t *testing.T) {
	preserveOTelGlobals(t)
	shutdown, err := SetupOTel(context.Background(), enabledConfig("svc-shutdown"), "v1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		1:   "AlwaysOnSampler",
		2:   "AlwaysOnSampler",
		0:   "AlwaysOffSampler",
		-1:  "AlwaysOffSampler",
		0.5: "TraceIDRatioBased",
	}
	for ratio, want := range cases {
		assert.Contains(t, sampler(ratio).Description(), want, "ratio %v", ratio)
	}
}

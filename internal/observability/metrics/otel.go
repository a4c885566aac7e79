package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OTelConfig configures the OTLP meter provider that mirrors the metering
// counters for collectors that do not scrape /metrics.
type OTelConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
}

// NewMeterProvider configures and registers the global meter provider.
func NewMeterProvider(lc fx.Lifecycle, cfg OTelConfig, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}
	log.Info("otlp metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

type otelInstruments struct {
	usageUnits metric.Int64Counter
	invoices   metric.Int64Counter
}

// Bridge mirrors accepted usage and generated invoices onto provider.
func (m *Metrics) Bridge(provider metric.MeterProvider, serviceName string) error {
	if m == nil || provider == nil {
		return nil
	}
	name := strings.TrimSpace(serviceName)
	if name == "" {
		name = "factorylicense"
	}
	meter := provider.Meter(name)

	usageUnits, err := meter.Int64Counter("factorylicense_usage_units",
		metric.WithDescription("Units of usage accepted by usage type."))
	if err != nil {
		return err
	}
	invoices, err := meter.Int64Counter("factorylicense_invoices",
		metric.WithDescription("Invoices generated by currency."))
	if err != nil {
		return err
	}
	m.otel = &otelInstruments{usageUnits: usageUnits, invoices: invoices}
	return nil
}

func (o *otelInstruments) addUsage(usageType string, amount int64) {
	if o == nil || amount <= 0 {
		return
	}
	o.usageUnits.Add(context.Background(), amount, metric.WithAttributes(attribute.String("usage_type", usageType)))
}

func (o *otelInstruments) addInvoice(currency string) {
	if o == nil {
		return
	}
	o.invoices.Add(context.Background(), 1, metric.WithAttributes(attribute.String("currency", currency)))
}

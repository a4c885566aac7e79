package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/factorylicense/internal/observability/logger"
	"github.com/smallbiznis/factorylicense/internal/observability/metrics"
	"github.com/smallbiznis/factorylicense/internal/observability/tracing"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		metrics.NewRegistry,
		provideRegisterer,
		metrics.New,
		provideMeterConfig,
		metrics.NewMeterProvider,
	),
	fx.Invoke(func(trace.TracerProvider) {}),
	fx.Invoke(func(m *metrics.Metrics, provider metric.MeterProvider, cfg Config) error {
		return m.Bridge(provider, cfg.ServiceName)
	}),
)

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
	}
}

func provideMeterConfig(cfg Config) metrics.OTelConfig {
	return metrics.OTelConfig{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
	}
}

func provideRegisterer(reg *prometheus.Registry) prometheus.Registerer {
	return reg
}

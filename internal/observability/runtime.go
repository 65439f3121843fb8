package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/otlptranslator"
	"github.com/upb/ai-translator/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	instrumentationName = "github.com/upb/ai-translator"
	serviceNamespace    = "ai.translator"
)

// ErrNotInitialized is returned by the package accessors before Initialize succeeded.
var ErrNotInitialized = errors.New("observability: runtime is not initialized")

// Mode selects how verbose the runtime is about sensitive data.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ModeFor maps an application environment to a run mode.
func ModeFor(cfg *config.Config) Mode {
	if cfg.IsDevelopment() {
		return ModeDevelopment
	}
	return ModeProduction
}

// Option customizes runtime construction.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	logger        *zap.Logger
	spanExporters []sdktrace.SpanExporter
	metricReaders []sdkmetric.Reader
}

// WithLogger replaces the logger built from configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *runtimeOptions) { o.logger = logger }
}

// WithSpanExporter adds an exporter that receives every finished span synchronously.
func WithSpanExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *runtimeOptions) { o.spanExporters = append(o.spanExporters, exporter) }
}

// WithMetricReader adds a reader to the meter provider.
func WithMetricReader(reader sdkmetric.Reader) Option {
	return func(o *runtimeOptions) { o.metricReaders = append(o.metricReaders, reader) }
}

// Runtime holds the process-wide tracer, meter and logger.
// Its fields are written once by Initialize and only read afterwards.
type Runtime struct {
	mode        Mode
	serviceName string
	environment string

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	tracer      trace.Tracer
	meter       metric.Meter
	logger      *zap.Logger
	processors  *ProcessorChain
	instruments *Instruments
	metrics     http.Handler

	shutdownOnce sync.Once
	shutdownErr  error
}

var (
	initMu sync.Mutex
	active atomic.Pointer[Runtime]
)

// Initialize builds the process runtime. It succeeds at most once: later calls
// log a warning and return the runtime built by the first successful call.
func Initialize(ctx context.Context, mode Mode, serviceName, environment string, cfg config.ObservabilityConfig, opts ...Option) (*Runtime, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if rt := active.Load(); rt != nil {
		rt.logger.Warn("observability runtime already initialized, ignoring repeated initialization",
			zap.String("service", rt.serviceName))
		return rt, nil
	}

	rt, err := newRuntime(ctx, mode, serviceName, environment, cfg, opts...)
	if err != nil {
		return nil, err
	}
	active.Store(rt)
	return rt, nil
}

// Current returns the initialized runtime.
func Current() (*Runtime, error) {
	rt := active.Load()
	if rt == nil {
		return nil, ErrNotInitialized
	}
	return rt, nil
}

// Tracer returns the runtime tracer.
func Tracer() (trace.Tracer, error) {
	rt, err := Current()
	if err != nil {
		return nil, err
	}
	return rt.tracer, nil
}

// Meter returns the runtime meter.
func Meter() (metric.Meter, error) {
	rt, err := Current()
	if err != nil {
		return nil, err
	}
	return rt.meter, nil
}

// Logger returns the runtime logger.
func Logger() (*zap.Logger, error) {
	rt, err := Current()
	if err != nil {
		return nil, err
	}
	return rt.logger, nil
}

func newRuntime(ctx context.Context, mode Mode, serviceName, environment string, cfg config.ObservabilityConfig, opts ...Option) (*Runtime, error) {
	o := runtimeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.ServiceName != "" {
		serviceName = cfg.ServiceName
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = NewLogger(cfg.LogLevel, cfg.LogFormat, serviceName)
		if err != nil {
			return nil, err
		}
	}

	res, err := resource.New(ctx,
		resource.WithProcessPID(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceNamespace(serviceNamespace),
			attribute.String("deployment.environment.name", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	rt := &Runtime{
		mode:        mode,
		serviceName: serviceName,
		environment: environment,
		processors:  NewProcessorChain(logger),
	}

	exportEnabled := cfg.Endpoint != ""
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if exportEnabled {
		spanExporter, err := newSpanExporter(ctx, cfg.Protocol)
		if err != nil {
			return nil, fmt.Errorf("failed to create span exporter: %w", err)
		}
		rt.processors.Register(sdktrace.NewBatchSpanProcessor(spanExporter))

		metricExporter, err := newMetricExporter(ctx, cfg.Protocol)
		if err != nil {
			_ = rt.processors.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))

		logExporter, err := newLogExporter(ctx, cfg.Protocol)
		if err != nil {
			_ = rt.processors.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create log exporter: %w", err)
		}
		rt.loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		)
		global.SetLoggerProvider(rt.loggerProvider)
		logger = withLogExport(logger, rt.loggerProvider)
	} else if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		// Scraped names match the registered instrument names.
		reader, err := promexporter.New(
			promexporter.WithRegisterer(registry),
			promexporter.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithoutSuffixes),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(reader))
		rt.metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	if cfg.ConsoleTraces {
		console, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		rt.processors.Register(sdktrace.NewSimpleSpanProcessor(console))
	}
	for _, exporter := range o.spanExporters {
		rt.processors.Register(sdktrace.NewSimpleSpanProcessor(exporter))
	}
	for _, reader := range o.metricReaders {
		metricOpts = append(metricOpts, sdkmetric.WithReader(reader))
	}

	rt.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithSpanProcessor(rt.processors),
	)
	rt.meterProvider = sdkmetric.NewMeterProvider(metricOpts...)

	otel.SetTracerProvider(rt.tracerProvider)
	otel.SetMeterProvider(rt.meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	rt.logger = logger
	rt.tracer = rt.tracerProvider.Tracer(instrumentationName)
	rt.meter = rt.meterProvider.Meter(instrumentationName)

	rt.instruments, err = NewInstruments(rt.meter)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, fmt.Errorf("failed to register instruments: %w", err)
	}

	logger.Info("observability initialized",
		zap.String("mode", string(mode)),
		zap.String("environment", environment),
		zap.Bool("otlp_export", exportEnabled),
		zap.String("otlp_protocol", cfg.Protocol),
		zap.Float64("sample_ratio", cfg.SampleRatio),
	)

	return rt, nil
}

// Tracer returns the tracer used for every span of the service.
func (r *Runtime) Tracer() trace.Tracer { return r.tracer }

// Meter returns the meter owning the registered instruments.
func (r *Runtime) Meter() metric.Meter { return r.meter }

// Logger returns the service logger.
func (r *Runtime) Logger() *zap.Logger { return r.logger }

// Instruments returns the instrument registry.
func (r *Runtime) Instruments() *Instruments { return r.instruments }

// Processors returns the span processor chain.
func (r *Runtime) Processors() *ProcessorChain { return r.processors }

// Mode returns the run mode.
func (r *Runtime) Mode() Mode { return r.mode }

// IsDevelopment reports whether sensitive events may be mirrored to the console.
func (r *Runtime) IsDevelopment() bool { return r.mode == ModeDevelopment }

// ServiceName returns the effective service name.
func (r *Runtime) ServiceName() string { return r.serviceName }

// Environment returns the deployment environment label.
func (r *Runtime) Environment() string { return r.environment }

// MetricsHandler returns the Prometheus scrape handler, or nil when metrics
// are exported over OTLP or disabled.
func (r *Runtime) MetricsHandler() http.Handler { return r.metrics }

// Shutdown flushes and stops every provider. It is safe to call more than once.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.shutdownOnce.Do(func() {
		var errs []error
		if r.tracerProvider != nil {
			if err := r.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider: %w", err))
			}
		} else if err := r.processors.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("span processors: %w", err))
		}
		if r.meterProvider != nil {
			if err := r.meterProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("meter provider: %w", err))
			}
		}
		if r.loggerProvider != nil {
			if err := r.loggerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("logger provider: %w", err))
			}
		}
		r.shutdownErr = errors.Join(errs...)
	})
	return r.shutdownErr
}

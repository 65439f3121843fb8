package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names registered at initialization.
const (
	MetricRequestLatency  = "llm_request_latency"
	MetricInputTokens     = "llm_input_tokens"
	MetricOutputTokens    = "llm_output_tokens"
	MetricTotalTokens     = "llm_total_tokens"
	MetricRequestFailures = "llm_request_failures"
	MetricEvaluationScore = "translation_evaluation_score"
	MetricSpanDispatches  = "span_dispatches"
)

// Instruments is the registry of named counters and histograms. Instruments
// are created once and looked up by name afterwards; recording is safe for
// concurrent use.
type Instruments struct {
	meter metric.Meter

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewInstruments registers the service instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	in := &Instruments{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}

	histograms := []struct {
		name, unit, description string
	}{
		{MetricRequestLatency, "ms", "Latency of model gateway calls"},
		{MetricEvaluationScore, "1", "Quality score assigned to translations by the evaluator"},
	}
	for _, h := range histograms {
		if _, err := in.RegisterHistogram(h.name, h.unit, h.description); err != nil {
			return nil, err
		}
	}

	counters := []struct {
		name, unit, description string
	}{
		{MetricInputTokens, "{token}", "Prompt tokens sent to the model gateway"},
		{MetricOutputTokens, "{token}", "Completion tokens returned by the model gateway"},
		{MetricTotalTokens, "{token}", "Total tokens reported by the model gateway"},
		{MetricRequestFailures, "{request}", "Failed model gateway calls"},
		{MetricSpanDispatches, "{dispatch}", "Outcomes of span completion dispatches"},
	}
	for _, c := range counters {
		if _, err := in.RegisterCounter(c.name, c.unit, c.description); err != nil {
			return nil, err
		}
	}

	return in, nil
}

// RegisterCounter creates a counter, or returns the one already registered under name.
func (in *Instruments) RegisterCounter(name, unit, description string) (metric.Int64Counter, error) {
	name = MetricName(name)

	in.mu.Lock()
	defer in.mu.Unlock()

	if c, ok := in.counters[name]; ok {
		return c, nil
	}
	c, err := in.meter.Int64Counter(name, metric.WithUnit(unit), metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	in.counters[name] = c
	return c, nil
}

// RegisterHistogram creates a histogram, or returns the one already registered under name.
func (in *Instruments) RegisterHistogram(name, unit, description string) (metric.Float64Histogram, error) {
	name = MetricName(name)

	in.mu.Lock()
	defer in.mu.Unlock()

	if h, ok := in.histograms[name]; ok {
		return h, nil
	}
	h, err := in.meter.Float64Histogram(name, metric.WithUnit(unit), metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	in.histograms[name] = h
	return h, nil
}

// Counter looks up a registered counter.
func (in *Instruments) Counter(name string) (metric.Int64Counter, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	c, ok := in.counters[MetricName(name)]
	return c, ok
}

// Histogram looks up a registered histogram.
func (in *Instruments) Histogram(name string) (metric.Float64Histogram, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	h, ok := in.histograms[MetricName(name)]
	return h, ok
}

// Add increments a registered counter. Unknown names are ignored.
func (in *Instruments) Add(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
	if c, ok := in.Counter(name); ok {
		c.Add(ctx, value, metric.WithAttributes(attrs...))
	}
}

// Record adds a sample to a registered histogram. Unknown names are ignored.
func (in *Instruments) Record(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
	if h, ok := in.Histogram(name); ok {
		h.Record(ctx, value, metric.WithAttributes(attrs...))
	}
}

package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// ProcessorChain fans span start and end notifications out to its registered
// processors in registration order. A processor that panics is logged and
// skipped; the span-closing caller never sees it.
type ProcessorChain struct {
	mu         sync.Mutex
	processors atomic.Pointer[[]sdktrace.SpanProcessor]
	logger     *zap.Logger
}

var _ sdktrace.SpanProcessor = (*ProcessorChain)(nil)

// NewProcessorChain creates an empty chain.
func NewProcessorChain(logger *zap.Logger) *ProcessorChain {
	c := &ProcessorChain{logger: logger}
	c.processors.Store(&[]sdktrace.SpanProcessor{})
	return c
}

// Register appends p to the chain.
func (c *ProcessorChain) Register(p sdktrace.SpanProcessor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := *c.processors.Load()
	next := make([]sdktrace.SpanProcessor, len(current), len(current)+1)
	copy(next, current)
	next = append(next, p)
	c.processors.Store(&next)
}

// Unregister removes p from the chain. It does not shut p down.
func (c *ProcessorChain) Unregister(p sdktrace.SpanProcessor) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := *c.processors.Load()
	next := make([]sdktrace.SpanProcessor, 0, len(current))
	removed := false
	for _, registered := range current {
		if !removed && registered == p {
			removed = true
			continue
		}
		next = append(next, registered)
	}
	if removed {
		c.processors.Store(&next)
	}
	return removed
}

// Len returns the number of registered processors.
func (c *ProcessorChain) Len() int {
	return len(*c.processors.Load())
}

// OnStart implements sdktrace.SpanProcessor.
func (c *ProcessorChain) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	for _, p := range *c.processors.Load() {
		c.safeCall("start", p, s.Name(), func() { p.OnStart(parent, s) })
	}
}

// OnEnd implements sdktrace.SpanProcessor.
func (c *ProcessorChain) OnEnd(s sdktrace.ReadOnlySpan) {
	for _, p := range *c.processors.Load() {
		c.safeCall("end", p, s.Name(), func() { p.OnEnd(s) })
	}
}

// Shutdown shuts every processor down and joins their errors.
func (c *ProcessorChain) Shutdown(ctx context.Context) error {
	var errs []error
	for _, p := range *c.processors.Load() {
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// ForceFlush flushes every processor and joins their errors.
func (c *ProcessorChain) ForceFlush(ctx context.Context) error {
	var errs []error
	for _, p := range *c.processors.Load() {
		if err := p.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (c *ProcessorChain) safeCall(stage string, p sdktrace.SpanProcessor, span string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("span processor panicked",
				zap.String("stage", stage),
				zap.String("processor", fmt.Sprintf("%T", p)),
				zap.String("span", span),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	fn()
}

package observability

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestBuilder derives a handler request from a finished span. It returns
// a *MissingAttributeError or *AttributeTypeError when the span lacks data.
type RequestBuilder[R any] func(span SpanSnapshot) (R, error)

// Handler performs the side effect for one finished span.
type Handler[R any] func(ctx context.Context, req R) error

// Dispatch outcomes recorded on the span_dispatches counter.
const (
	DispatchScheduled = "scheduled"
	DispatchSkipped   = "skipped"
	DispatchDropped   = "dropped"
	DispatchFailed    = "failed"
	DispatchCompleted = "completed"
)

// DispatchOption configures an AsyncCallProcessor.
type DispatchOption func(*dispatchConfig)

type dispatchConfig struct {
	name      string
	targets   []string
	workers   int
	queueSize int
	counter   metric.Int64Counter
}

// WithTargets restricts dispatch to spans with one of the given names.
// Without targets every span is dispatched.
func WithTargets(names ...string) DispatchOption {
	return func(c *dispatchConfig) { c.targets = append(c.targets, names...) }
}

// WithWorkerPool runs handlers on a fixed number of workers fed by a queue of
// queueSize. Dispatches that find the queue full are dropped and logged.
func WithWorkerPool(workers, queueSize int) DispatchOption {
	return func(c *dispatchConfig) {
		c.workers = workers
		c.queueSize = queueSize
	}
}

// WithProcessorName names the processor in logs and metrics.
func WithProcessorName(name string) DispatchOption {
	return func(c *dispatchConfig) { c.name = name }
}

// WithDispatchCounter records every dispatch outcome on counter.
func WithDispatchCounter(counter metric.Int64Counter) DispatchOption {
	return func(c *dispatchConfig) { c.counter = counter }
}

// DispatchStats counts dispatch outcomes since the processor was created.
type DispatchStats struct {
	Scheduled int64
	Skipped   int64
	Dropped   int64
	Failed    int64
	Completed int64
}

// AsyncCallProcessor calls a handler in the background for every finished
// span it matches. OnEnd never blocks on the handler and never fails: builder
// errors, handler errors and panics are logged and counted.
type AsyncCallProcessor[R any] struct {
	name    string
	handler Handler[R]
	build   RequestBuilder[R]
	targets map[string]struct{}
	logger  *zap.Logger
	counter metric.Int64Counter
	pool    *workerPool

	// mu orders goroutine registration against Shutdown so every handler
	// started before close is awaited.
	mu       sync.Mutex
	inflight sync.WaitGroup
	closed   atomic.Bool

	scheduled atomic.Int64
	skipped   atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
	completed atomic.Int64
}

var _ sdktrace.SpanProcessor = (*AsyncCallProcessor[struct{}])(nil)

// NewAsyncCallProcessor creates a processor that feeds spans through build
// into handler.
func NewAsyncCallProcessor[R any](handler Handler[R], build RequestBuilder[R], logger *zap.Logger, opts ...DispatchOption) *AsyncCallProcessor[R] {
	cfg := dispatchConfig{name: "async_call"}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &AsyncCallProcessor[R]{
		name:    cfg.name,
		handler: handler,
		build:   build,
		targets: make(map[string]struct{}, len(cfg.targets)),
		logger:  logger.With(zap.String("processor", cfg.name)),
		counter: cfg.counter,
	}
	for _, name := range cfg.targets {
		p.targets[name] = struct{}{}
	}
	if cfg.workers > 0 && cfg.queueSize > 0 {
		p.pool = newWorkerPool(cfg.workers, cfg.queueSize)
	}
	return p
}

// Matches reports whether spans named name are dispatched.
func (p *AsyncCallProcessor[R]) Matches(name string) bool {
	if len(p.targets) == 0 {
		return true
	}
	_, ok := p.targets[name]
	return ok
}

// OnStart implements sdktrace.SpanProcessor.
func (p *AsyncCallProcessor[R]) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd implements sdktrace.SpanProcessor.
func (p *AsyncCallProcessor[R]) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.closed.Load() || !p.Matches(s.Name()) {
		return
	}

	snap := Snapshot(s)
	req, err := p.buildRequest(snap)
	if err != nil {
		p.skipped.Add(1)
		p.record(DispatchSkipped)
		p.logger.Warn("skipping span dispatch, request could not be built",
			zap.String("span", snap.Name),
			zap.String("trace_id", snap.SpanContext.TraceID().String()),
			zap.Error(err),
		)
		return
	}

	task := func() { p.run(snap, req) }
	if p.pool != nil {
		if !p.pool.submit(task) {
			p.dropped.Add(1)
			p.record(DispatchDropped)
			p.logger.Warn("dropping span dispatch, worker queue is full",
				zap.String("span", snap.Name),
				zap.String("trace_id", snap.SpanContext.TraceID().String()),
			)
			return
		}
	} else if !p.spawn(task) {
		return
	}

	p.scheduled.Add(1)
	p.record(DispatchScheduled)
}

// spawn runs task on its own goroutine unless the processor is shut down.
func (p *AsyncCallProcessor[R]) spawn(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return false
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		task()
	}()
	return true
}

func (p *AsyncCallProcessor[R]) buildRequest(snap SpanSnapshot) (req R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("request builder panicked: %v", r)
		}
	}()
	return p.build(snap)
}

// run executes the handler under a context whose parent is the finished span.
func (p *AsyncCallProcessor[R]) run(snap SpanSnapshot, req R) {
	ctx := trace.ContextWithSpanContext(context.Background(), snap.SpanContext)

	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.record(DispatchFailed)
			p.logger.Error("span dispatch handler panicked",
				zap.String("span", snap.Name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := p.handler(ctx, req); err != nil {
		p.failed.Add(1)
		p.record(DispatchFailed)
		p.logger.Error("span dispatch handler failed",
			zap.String("span", snap.Name),
			zap.String("trace_id", snap.SpanContext.TraceID().String()),
			zap.Error(err),
		)
		return
	}
	p.completed.Add(1)
	p.record(DispatchCompleted)
}

func (p *AsyncCallProcessor[R]) record(outcome string) {
	if p.counter == nil {
		return
	}
	p.counter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("processor", p.name),
		attribute.String("outcome", outcome),
	))
}

// Stats returns the dispatch outcome counts.
func (p *AsyncCallProcessor[R]) Stats() DispatchStats {
	return DispatchStats{
		Scheduled: p.scheduled.Load(),
		Skipped:   p.skipped.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
		Completed: p.completed.Load(),
	}
}

// Shutdown stops accepting spans and waits for running handlers until ctx is done.
func (p *AsyncCallProcessor[R]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed.Store(true)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if p.pool != nil {
			p.pool.shutdown()
		}
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s handlers: %w", p.name, ctx.Err())
	}
}

// ForceFlush implements sdktrace.SpanProcessor. Dispatched handlers are not awaited.
func (p *AsyncCallProcessor[R]) ForceFlush(context.Context) error { return nil }

// workerPool runs queued tasks on a fixed set of goroutines.
type workerPool struct {
	mu      sync.RWMutex
	tasks   chan func()
	stopped bool
	wg      sync.WaitGroup
}

func newWorkerPool(workers, queueSize int) *workerPool {
	wp := &workerPool{tasks: make(chan func(), queueSize)}
	wp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go wp.run()
	}
	return wp
}

func (wp *workerPool) run() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// submit queues task without blocking. It reports false when the queue is
// full or the pool is stopped.
func (wp *workerPool) submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return false
	}
	select {
	case wp.tasks <- task:
		return true
	default:
		return false
	}
}

// shutdown drains queued tasks and waits for the workers to exit.
func (wp *workerPool) shutdown() {
	wp.mu.Lock()
	if !wp.stopped {
		wp.stopped = true
		close(wp.tasks)
	}
	wp.mu.Unlock()
	wp.wg.Wait()
}

package observability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type recordingProcessor struct {
	name        string
	log         *eventLog
	panicOnEnd  bool
	shutdownErr error
}

func (p *recordingProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	p.log.add(p.name + ":start:" + s.Name())
}

func (p *recordingProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.panicOnEnd {
		panic("processor exploded")
	}
	p.log.add(p.name + ":end:" + s.Name())
}

func (p *recordingProcessor) Shutdown(context.Context) error   { return p.shutdownErr }
func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

func newChainProvider(t *testing.T, chain *ProcessorChain) *sdktrace.TracerProvider {
	t.Helper()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(chain))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp
}

func TestProcessorChainBroadcastsInRegistrationOrder(t *testing.T) {
	log := &eventLog{}
	chain := NewProcessorChain(zap.NewNop())
	chain.Register(&recordingProcessor{name: "first", log: log})
	chain.Register(&recordingProcessor{name: "second", log: log})

	tp := newChainProvider(t, chain)
	_, span := tp.Tracer("test").Start(context.Background(), "translate_text")
	span.End()

	assert.Equal(t, []string{
		"first:start:translate_text",
		"second:start:translate_text",
		"first:end:translate_text",
		"second:end:translate_text",
	}, log.all())
}

func TestProcessorChainIsolatesPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	log := &eventLog{}

	chain := NewProcessorChain(zap.New(core))
	chain.Register(&recordingProcessor{name: "broken", log: log, panicOnEnd: true})
	chain.Register(&recordingProcessor{name: "healthy", log: log})

	tp := newChainProvider(t, chain)
	_, span := tp.Tracer("test").Start(context.Background(), "translate_text")

	assert.NotPanics(t, func() { span.End() })
	assert.Contains(t, log.all(), "healthy:end:translate_text")

	entries := logs.FilterMessage("span processor panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "end", entries[0].ContextMap()["stage"])
	assert.Equal(t, "translate_text", entries[0].ContextMap()["span"])
}

func TestProcessorChainUnregister(t *testing.T) {
	log := &eventLog{}
	p := &recordingProcessor{name: "p", log: log}

	chain := NewProcessorChain(zap.NewNop())
	chain.Register(p)
	require.Equal(t, 1, chain.Len())

	assert.True(t, chain.Unregister(p))
	assert.False(t, chain.Unregister(p))
	assert.Equal(t, 0, chain.Len())

	tp := newChainProvider(t, chain)
	_, span := tp.Tracer("test").Start(context.Background(), "translate_text")
	span.End()

	assert.Empty(t, log.all())
}

func TestProcessorChainShutdownJoinsErrors(t *testing.T) {
	errFirst := errors.New("first failed")
	errSecond := errors.New("second failed")

	chain := NewProcessorChain(zap.NewNop())
	chain.Register(&recordingProcessor{name: "a", log: &eventLog{}, shutdownErr: errFirst})
	chain.Register(&recordingProcessor{name: "b", log: &eventLog{}})
	chain.Register(&recordingProcessor{name: "c", log: &eventLog{}, shutdownErr: errSecond})

	err := chain.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)

	assert.NoError(t, chain.ForceFlush(context.Background()))
}

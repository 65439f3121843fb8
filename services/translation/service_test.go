package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/ai-translator/internal/observability"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/services"
	"github.com/upb/ai-translator/services/providers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockGateway is a mock implementation of providers.Provider
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	return "mock"
}

func (m *MockGateway) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*providers.ChatResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) IsAvailable(ctx context.Context) bool {
	return true
}

// MockEvaluationRepository is a mock implementation of repositories.EvaluationRepository
type MockEvaluationRepository struct {
	mock.Mock
	mu      sync.Mutex
	created []*models.Evaluation
}

func (m *MockEvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	args := m.Called(ctx, evaluation)
	m.mu.Lock()
	m.created = append(m.created, evaluation)
	m.mu.Unlock()
	return args.Error(0)
}

func (m *MockEvaluationRepository) ListByTranslation(ctx context.Context, translationID uuid.UUID) ([]*models.Evaluation, error) {
	args := m.Called(ctx, translationID)
	if evaluations := args.Get(0); evaluations != nil {
		return evaluations.([]*models.Evaluation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvaluationRepository) Created() []*models.Evaluation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Evaluation(nil), m.created...)
}

type testTelemetry struct {
	tracer      trace.Tracer
	instruments *observability.Instruments
	logger      *zap.Logger
	development bool
}

func (t *testTelemetry) Tracer() trace.Tracer                    { return t.tracer }
func (t *testTelemetry) Instruments() *observability.Instruments { return t.instruments }
func (t *testTelemetry) Logger() *zap.Logger                     { return t.logger }
func (t *testTelemetry) IsDevelopment() bool                     { return t.development }

type harness struct {
	telemetry *testTelemetry
	chain     *observability.ProcessorChain
	spans     *tracetest.InMemoryExporter
	metrics   *sdkmetric.ManualReader
	gateway   *MockGateway
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	spans := tracetest.NewInMemoryExporter()
	chain := observability.NewProcessorChain(zap.NewNop())
	chain.Register(sdktrace.NewSimpleSpanProcessor(spans))
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(chain))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	instruments, err := observability.NewInstruments(mp.Meter("test"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	return &harness{
		telemetry: &testTelemetry{
			tracer:      tp.Tracer("test"),
			instruments: instruments,
			logger:      zap.NewNop(),
		},
		chain:   chain,
		spans:   spans,
		metrics: reader,
		gateway: new(MockGateway),
	}
}

func testOptions() Options {
	return Options{
		Model:       "gpt-4o",
		Deployment:  "translator",
		MaxTokens:   4096,
		Temperature: 0.5,
	}
}

func (h *harness) service(repo *MockEvaluationRepository) *Service {
	if repo == nil {
		return NewService(h.gateway, h.telemetry, nil, testOptions())
	}
	return NewService(h.gateway, h.telemetry, repo, testOptions())
}

func (h *harness) spansNamed(name string) tracetest.SpanStubs {
	var out tracetest.SpanStubs
	for _, s := range h.spans.GetSpans() {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// counterTotal sums every data point of a counter.
func (h *harness) counterTotal(t *testing.T, name string) int64 {
	t.Helper()
	var total int64
	for _, dp := range h.counterPoints(t, name) {
		total += dp.Value
	}
	return total
}

func (h *harness) counterPoints(t *testing.T, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.metrics.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "%s is not an int64 sum", name)
				return sum.DataPoints
			}
		}
	}
	return nil
}

func (h *harness) histogramPoints(t *testing.T, name string) []metricdata.HistogramDataPoint[float64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.metrics.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				hist, ok := m.Data.(metricdata.Histogram[float64])
				require.True(t, ok, "%s is not a float64 histogram", name)
				return hist.DataPoints
			}
		}
	}
	return nil
}

func chatResponse(text string, prompt, completion, total int) *providers.ChatResponse {
	return &providers.ChatResponse{
		ID:       "chatcmpl-1",
		Model:    "gpt-4o-2024-05-13",
		Provider: "mock",
		Choices: []providers.Choice{
			{Message: providers.Message{Role: providers.RoleAssistant, Content: text}, FinishReason: "stop"},
		},
		Usage: providers.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total},
	}
}

func isTranslateCall(req *providers.ChatRequest) bool {
	return strings.HasPrefix(req.Messages[0].Content, "You are a translator")
}

func isEvaluateCall(req *providers.ChatRequest) bool {
	return strings.HasPrefix(req.Messages[0].Content, "You are an evaluator")
}

func expectedTags(source, target string) attribute.Set {
	return attribute.NewSet(
		TagModel.String("gpt-4o"),
		TagDeployment.String("translator"),
		TagSourceLanguage.String(source),
		TagTargetLanguage.String(target),
		TagTemperature.Float64(0.5),
	)
}

func TestService_Translate(t *testing.T) {
	h := newHarness(t)
	h.gateway.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req *providers.ChatRequest) bool {
		return isTranslateCall(req) &&
			strings.Contains(req.Messages[0].Content, "from English to Spanish") &&
			req.Messages[1].Content == "Hello" &&
			req.Model == "gpt-4o" &&
			req.MaxTokens == 4096 &&
			req.Temperature == 0.5
	})).Return(chatResponse("Hola", 5, 2, 7), nil)

	result, err := h.service(nil).Translate(context.Background(), &TranslateRequest{
		SourceText:     "Hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hola", result.TargetText)
	assert.NotEqual(t, uuid.Nil, result.TranslationID)
	assert.Equal(t, 7, result.Usage.TotalTokens)
	h.gateway.AssertExpectations(t)

	latency := h.histogramPoints(t, observability.MetricRequestLatency)
	require.Len(t, latency, 1)
	assert.Equal(t, uint64(1), latency[0].Count)
	tags := expectedTags("en", "es")
	assert.True(t, latency[0].Attributes.Equals(&tags))

	tokens := map[string]int64{
		observability.MetricInputTokens:  5,
		observability.MetricOutputTokens: 2,
		observability.MetricTotalTokens:  7,
	}
	for name, want := range tokens {
		points := h.counterPoints(t, name)
		require.Len(t, points, 1, name)
		assert.Equal(t, want, points[0].Value, name)
		assert.True(t, points[0].Attributes.Equals(&tags), name)
	}
	assert.Zero(t, h.counterTotal(t, observability.MetricRequestFailures))

	spans := h.spansNamed(SpanTranslate)
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Ok, span.Status.Code)

	attrs := attribute.NewSet(span.Attributes...)
	value, ok := attrs.Value(AttrTranslatedText)
	require.True(t, ok)
	assert.Equal(t, "Hola", value.AsString())
	value, ok = attrs.Value(AttrRequestedText)
	require.True(t, ok)
	assert.Equal(t, "Hello", value.AsString())
	value, ok = attrs.Value(AttrTranslationID)
	require.True(t, ok)
	assert.Equal(t, result.TranslationID.String(), value.AsString())
	value, ok = attrs.Value(AttrTotalTokens)
	require.True(t, ok)
	assert.Equal(t, int64(7), value.AsInt64())
	value, ok = attrs.Value(observability.SensitiveDataAttribute)
	require.True(t, ok)
	assert.Equal(t, "true", value.AsString())
}

func TestService_Translate_TokenCountersAccumulate(t *testing.T) {
	h := newHarness(t)
	usage := [][3]int{{5, 2, 7}, {11, 4, 15}, {3, 3, 6}}

	for _, u := range usage {
		h.gateway.On("ChatCompletion", mock.Anything, mock.Anything).
			Return(chatResponse("Hola", u[0], u[1], u[2]), nil).Once()
	}

	svc := h.service(nil)
	for range usage {
		_, err := svc.Translate(context.Background(), &TranslateRequest{
			SourceText:     "Hello",
			SourceLanguage: "en",
			TargetLanguage: "es",
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(19), h.counterTotal(t, observability.MetricInputTokens))
	assert.Equal(t, int64(9), h.counterTotal(t, observability.MetricOutputTokens))
	assert.Equal(t, int64(28), h.counterTotal(t, observability.MetricTotalTokens))

	latency := h.histogramPoints(t, observability.MetricRequestLatency)
	require.Len(t, latency, 1)
	assert.Equal(t, uint64(3), latency[0].Count)
}

func TestService_Translate_GatewayError(t *testing.T) {
	h := newHarness(t)
	transportErr := providers.NewProviderError("mock", "HTTP_ERROR", "HTTP request failed", 0, true, errors.New("connection refused"))
	h.gateway.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, transportErr)

	result, err := h.service(nil).Translate(context.Background(), &TranslateRequest{
		SourceText:     "Hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, services.IsExternalError(err))
	assert.ErrorIs(t, err, transportErr)
	var domainErr *services.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, services.ErrGatewayError.Message, domainErr.Message)
	assert.Equal(t, OperationTranslate, domainErr.Details["operation"])

	spans := h.spansNamed(SpanTranslate)
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)

	assert.Zero(t, h.counterTotal(t, observability.MetricInputTokens))
	assert.Zero(t, h.counterTotal(t, observability.MetricOutputTokens))
	assert.Zero(t, h.counterTotal(t, observability.MetricTotalTokens))
	assert.Empty(t, h.histogramPoints(t, observability.MetricRequestLatency))

	failures := h.counterPoints(t, observability.MetricRequestFailures)
	require.Len(t, failures, 1)
	assert.Equal(t, int64(1), failures[0].Value)
	operation, ok := failures[0].Attributes.Value(TagOperation)
	require.True(t, ok)
	assert.Equal(t, OperationTranslate, operation.AsString())
}

func TestService_Translate_Timeout(t *testing.T) {
	h := newHarness(t)
	h.gateway.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(nil, providers.NewProviderError("mock", "HTTP_ERROR", "HTTP request failed", 0, false, context.DeadlineExceeded))

	_, err := h.service(nil).Translate(context.Background(), &TranslateRequest{
		SourceText:     "Hello",
		SourceLanguage: "en",
		TargetLanguage: "fr",
	})
	require.Error(t, err)

	var domainErr *services.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, services.ErrGatewayTimeout.Message, domainErr.Message)
}

func TestService_Translate_EmptyResponse(t *testing.T) {
	h := newHarness(t)
	h.gateway.On("ChatCompletion", mock.Anything, mock.Anything).Return(&providers.ChatResponse{}, nil)

	_, err := h.service(nil).Translate(context.Background(), &TranslateRequest{
		SourceText:     "Hello",
		SourceLanguage: "en",
		TargetLanguage: "de",
	})
	require.Error(t, err)
	assert.True(t, services.IsExternalError(err))
	assert.ErrorIs(t, err, providers.ErrEmptyResponse)
	assert.Zero(t, h.counterTotal(t, observability.MetricTotalTokens))
}

func TestService_Translate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  TranslateRequest
	}{
		{"empty text", TranslateRequest{SourceText: "  ", SourceLanguage: "en", TargetLanguage: "es"}},
		{"unknown source", TranslateRequest{SourceText: "Hello", SourceLanguage: "xx", TargetLanguage: "es"}},
		{"unknown target", TranslateRequest{SourceText: "Hello", SourceLanguage: "en", TargetLanguage: "Spanish"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.service(nil).Translate(context.Background(), &tt.req)
			require.Error(t, err)
			assert.True(t, services.IsValidationError(err))

			h.gateway.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
			assert.Empty(t, h.spans.GetSpans())
		})
	}
}

func TestService_Translate_PII(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		loggedText  string
	}{
		{name: "production logs are redacted", development: false, loggedText: "mail [EMAIL_REDACTED]"},
		{name: "development logs keep raw text", development: true, loggedText: "mail ana@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			core, logs := observer.New(zapcore.DebugLevel)
			h.telemetry.logger = zap.New(core)
			h.telemetry.development = tt.development
			h.gateway.On("ChatCompletion", mock.Anything, mock.Anything).
				Return(chatResponse("escribe a ana@example.com", 5, 2, 7), nil)

			_, err := h.service(nil).Translate(context.Background(), &TranslateRequest{
				SourceText:     "mail ana@example.com",
				SourceLanguage: "en",
				TargetLanguage: "es",
			})
			require.NoError(t, err)

			spans := h.spansNamed(SpanTranslate)
			require.Len(t, spans, 1)
			attrs := attribute.NewSet(spans[0].Attributes...)
			value, ok := attrs.Value(AttrContainsPII)
			require.True(t, ok)
			assert.True(t, value.AsBool())
			value, _ = attrs.Value(AttrRequestedText)
			assert.Equal(t, "mail ana@example.com", value.AsString())

			entries := logs.FilterMessage("translation completed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.loggedText, entries[0].ContextMap()["source_text"])
		})
	}
}

func TestService_Evaluate(t *testing.T) {
	h := newHarness(t)
	h.gateway.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req *providers.ChatRequest) bool {
		return isEvaluateCall(req) &&
			strings.Contains(req.Messages[0].Content, "from English to Spanish") &&
			req.Messages[1].Content == "Requested Translation Text: Hello\nTranslated Text: Hola"
	})).Return(chatResponse(" 0.85\n", 30, 1, 31), nil)

	translationID := uuid.New()
	result, err := h.service(nil).Evaluate(context.Background(), &EvaluateRequest{
		RequestedText:  "Hello",
		TranslatedText: "Hola",
		SourceLanguage: "en",
		TargetLanguage: "es",
		TranslationID:  translationID,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.85", result.Evaluation)
	assert.InDelta(t, 0.85, result.Score, 1e-9)
	assert.Equal(t, "gpt-4o-2024-05-13", result.Model)

	scores := h.histogramPoints(t, observability.MetricEvaluationScore)
	require.Len(t, scores, 1)
	assert.Equal(t, uint64(1), scores[0].Count)
	assert.InDelta(t, 0.85, scores[0].Sum, 1e-9)
	assert.Equal(t, int64(31), h.counterTotal(t, observability.MetricTotalTokens))

	spans := h.spansNamed(SpanEvaluate)
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	attrs := attribute.NewSet(spans[0].Attributes...)
	value, ok := attrs.Value(AttrEvaluationScore)
	require.True(t, ok)
	assert.InDelta(t, 0.85, value.AsFloat64(), 1e-9)
	value, ok = attrs.Value(AttrTranslationID)
	require.True(t, ok)
	assert.Equal(t, translationID.String(), value.AsString())
}

func TestService_Evaluate_InvalidScore(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"not a number", "The translation is great"},
		{"above one", "1.5"},
		{"negative", "-0.2"},
		{"nan", "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.gateway.On("ChatCompletion", mock.Anything, mock.Anything).Return(chatResponse(tt.output, 30, 5, 35), nil)

			_, err := h.service(nil).Evaluate(context.Background(), &EvaluateRequest{
				RequestedText:  "Hello",
				TranslatedText: "Hola",
				SourceLanguage: "en",
				TargetLanguage: "es",
			})
			require.Error(t, err)
			assert.True(t, services.IsExternalError(err))
			assert.ErrorIs(t, err, services.ErrInvalidScore)

			assert.Empty(t, h.histogramPoints(t, observability.MetricEvaluationScore))

			// the gateway call itself succeeded, so its latency and usage are kept
			require.Len(t, h.histogramPoints(t, observability.MetricRequestLatency), 1)
			assert.Equal(t, int64(30), h.counterTotal(t, observability.MetricInputTokens))
			assert.Equal(t, int64(5), h.counterTotal(t, observability.MetricOutputTokens))
			assert.Equal(t, int64(35), h.counterTotal(t, observability.MetricTotalTokens))

			failures := h.counterPoints(t, observability.MetricRequestFailures)
			require.Len(t, failures, 1)
			assert.Equal(t, int64(1), failures[0].Value)
			operation, ok := failures[0].Attributes.Value(TagOperation)
			require.True(t, ok)
			assert.Equal(t, OperationEvaluate, operation.AsString())

			spans := h.spansNamed(SpanEvaluate)
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status.Code)
		})
	}
}

func TestService_Evaluations(t *testing.T) {
	translationID := uuid.New()

	t.Run("found", func(t *testing.T) {
		h := newHarness(t)
		repo := new(MockEvaluationRepository)
		stored := []*models.Evaluation{models.NewEvaluation(translationID, "en", "es", 0.9, "gpt-4o")}
		repo.On("ListByTranslation", mock.Anything, translationID).Return(stored, nil)

		evaluations, err := h.service(repo).Evaluations(context.Background(), translationID)
		require.NoError(t, err)
		assert.Equal(t, stored, evaluations)
	})

	t.Run("none recorded", func(t *testing.T) {
		h := newHarness(t)
		repo := new(MockEvaluationRepository)
		repo.On("ListByTranslation", mock.Anything, translationID).Return([]*models.Evaluation{}, nil)

		_, err := h.service(repo).Evaluations(context.Background(), translationID)
		assert.True(t, services.IsNotFoundError(err))
	})

	t.Run("repository failure", func(t *testing.T) {
		h := newHarness(t)
		repo := new(MockEvaluationRepository)
		repo.On("ListByTranslation", mock.Anything, translationID).Return(nil, errors.New("connection lost"))

		_, err := h.service(repo).Evaluations(context.Background(), translationID)
		assert.True(t, services.IsInternalError(err))
		var domainErr *services.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, services.ErrDatabaseError.Message, domainErr.Message)
		assert.Equal(t, "list_evaluations", domainErr.Details["operation"])
	})

	t.Run("no repository", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.service(nil).Evaluations(context.Background(), translationID)
		assert.True(t, services.IsNotFoundError(err))
	})
}

func TestSupportedLanguages(t *testing.T) {
	assert.Equal(t, []string{"de", "en", "es", "fr", "ja"}, SupportedLanguages())

	name, ok := LanguageName("ja")
	assert.True(t, ok)
	assert.Equal(t, "Japanese", name)

	_, ok = LanguageName("pt")
	assert.False(t, ok)
}

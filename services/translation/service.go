package translation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/internal/observability"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/repositories"
	"github.com/upb/ai-translator/services"
	"github.com/upb/ai-translator/services/providers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Telemetry is the part of the observability runtime the service records into.
// *observability.Runtime satisfies it.
type Telemetry interface {
	Tracer() trace.Tracer
	Instruments() *observability.Instruments
	Logger() *zap.Logger
	IsDevelopment() bool
}

// Service runs translations and evaluations against the model gateway
type Service struct {
	gateway     providers.Provider
	telemetry   Telemetry
	evaluations repositories.EvaluationRepository
	opts        Options
	logger      *zap.Logger
}

// NewService creates a new translation service. evaluations may be nil when
// evaluation history is not kept.
func NewService(gateway providers.Provider, telemetry Telemetry, evaluations repositories.EvaluationRepository, opts Options) *Service {
	return &Service{
		gateway:     gateway,
		telemetry:   telemetry,
		evaluations: evaluations,
		opts:        opts,
		logger:      telemetry.Logger().With(zap.String("component", "translation")),
	}
}

// Translate translates req.SourceText inside a translate_text span.
func (s *Service) Translate(ctx context.Context, req *TranslateRequest) (*TranslateResult, error) {
	if strings.TrimSpace(req.SourceText) == "" {
		return nil, services.ErrEmptyText
	}
	source, err := resolveLanguage("source_language", req.SourceLanguage)
	if err != nil {
		return nil, err
	}
	target, err := resolveLanguage("target_language", req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	translationID := uuid.New()
	tags := s.tags(req.SourceLanguage, req.TargetLanguage)

	ctx, span := s.telemetry.Tracer().Start(ctx, SpanTranslate,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(s.requestAttributes(req.SourceLanguage, req.TargetLanguage)...),
		trace.WithAttributes(
			AttrTranslationID.String(translationID.String()),
			AttrRequestedText.String(req.SourceText),
		),
	)
	defer span.End()
	observability.MarkSensitive(span)
	span.SetAttributes(AttrContainsPII.Bool(observability.ContainsPII(req.SourceText)))

	resp, text, err := s.complete(ctx, span, OperationTranslate, tags, []providers.Message{
		{Role: providers.RoleSystem, Content: translatorSystemPrompt(source, target)},
		{Role: providers.RoleUser, Content: req.SourceText},
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(AttrTranslatedText.String(text))
	span.SetStatus(codes.Ok, "")

	sourceText, targetText := req.SourceText, text
	if !s.telemetry.IsDevelopment() {
		sourceText, targetText = observability.RedactPII(sourceText), observability.RedactPII(targetText)
	}
	s.logger.Debug("translation completed",
		zap.String("translation_id", translationID.String()),
		zap.String("source_text", sourceText),
		zap.String("target_text", targetText))

	return &TranslateResult{
		TranslationID: translationID,
		TargetText:    text,
		Model:         s.responseModel(resp),
		Usage:         resp.Usage,
	}, nil
}

// Evaluate scores a translation inside an evaluate_translation span. The
// evaluator's answer must be a number in [0, 1].
func (s *Service) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResult, error) {
	if strings.TrimSpace(req.RequestedText) == "" || strings.TrimSpace(req.TranslatedText) == "" {
		return nil, services.ErrEmptyText
	}
	source, err := resolveLanguage("source_language", req.SourceLanguage)
	if err != nil {
		return nil, err
	}
	target, err := resolveLanguage("target_language", req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	tags := s.tags(req.SourceLanguage, req.TargetLanguage)

	ctx, span := s.telemetry.Tracer().Start(ctx, SpanEvaluate,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(s.requestAttributes(req.SourceLanguage, req.TargetLanguage)...),
		trace.WithAttributes(
			AttrEvaluationRequestedText.String(req.RequestedText),
			AttrEvaluationTranslatedText.String(req.TranslatedText),
		),
	)
	defer span.End()
	observability.MarkSensitive(span)

	if req.TranslationID != uuid.Nil {
		span.SetAttributes(AttrTranslationID.String(req.TranslationID.String()))
	}

	resp, text, err := s.complete(ctx, span, OperationEvaluate, tags, []providers.Message{
		{Role: providers.RoleSystem, Content: evaluatorSystemPrompt(source, target)},
		{Role: providers.RoleUser, Content: evaluatorUserContent(req.RequestedText, req.TranslatedText)},
	})
	if err != nil {
		return nil, err
	}

	evaluation := strings.TrimSpace(text)
	score, err := parseScore(evaluation)
	if err != nil {
		s.fail(ctx, span, OperationEvaluate, tags, err)
		return nil, services.NewDomainError(services.ErrorTypeExternal, services.ErrInvalidScore.Message, err).
			WithDetail("evaluation", evaluation)
	}

	s.telemetry.Instruments().Record(ctx, observability.MetricEvaluationScore, score, tags...)
	span.SetAttributes(AttrEvaluationScore.Float64(score))
	span.SetStatus(codes.Ok, "")

	return &EvaluateResult{
		Evaluation: evaluation,
		Score:      score,
		Model:      s.responseModel(resp),
		Usage:      resp.Usage,
	}, nil
}

// Evaluations lists the stored evaluations of a translation.
func (s *Service) Evaluations(ctx context.Context, translationID uuid.UUID) ([]*models.Evaluation, error) {
	if s.evaluations == nil {
		return nil, services.ErrEvaluationNotFound
	}
	evaluations, err := s.evaluations.ListByTranslation(ctx, translationID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, services.ErrDatabaseError.Message, err).
			WithDetail("operation", "list_evaluations")
	}
	if len(evaluations) == 0 {
		return nil, services.ErrEvaluationNotFound
	}
	return evaluations, nil
}

// complete calls the gateway and records latency and token usage. Failures are
// recorded on the span and the failure counter only.
func (s *Service) complete(ctx context.Context, span trace.Span, operation string, tags []attribute.KeyValue, messages []providers.Message) (*providers.ChatResponse, string, error) {
	start := time.Now()
	resp, err := s.gateway.ChatCompletion(ctx, &providers.ChatRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	var text string
	if err == nil {
		text, err = resp.Text()
	}
	if err != nil {
		s.fail(ctx, span, operation, tags, err)
		return nil, "", gatewayError(operation, err)
	}

	latency := float64(time.Since(start).Microseconds()) / 1000
	in := s.telemetry.Instruments()
	in.Record(ctx, observability.MetricRequestLatency, latency, tags...)
	in.Add(ctx, observability.MetricInputTokens, int64(resp.Usage.PromptTokens), tags...)
	in.Add(ctx, observability.MetricOutputTokens, int64(resp.Usage.CompletionTokens), tags...)
	in.Add(ctx, observability.MetricTotalTokens, int64(resp.Usage.TotalTokens), tags...)

	span.SetAttributes(
		AttrInputTokens.Int(resp.Usage.PromptTokens),
		AttrOutputTokens.Int(resp.Usage.CompletionTokens),
		AttrTotalTokens.Int(resp.Usage.TotalTokens),
		AttrResponseModel.String(s.responseModel(resp)),
	)
	return resp, text, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, operation string, tags []attribute.KeyValue, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attrs := append([]attribute.KeyValue{TagOperation.String(operation)}, tags...)
	s.telemetry.Instruments().Add(ctx, observability.MetricRequestFailures, 1, attrs...)

	s.logger.Error("model gateway call failed",
		zap.String("operation", operation),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(err))
}

func (s *Service) tags(source, target string) []attribute.KeyValue {
	return []attribute.KeyValue{
		TagModel.String(s.opts.Model),
		TagDeployment.String(s.opts.Deployment),
		TagSourceLanguage.String(source),
		TagTargetLanguage.String(target),
		TagTemperature.Float64(s.opts.Temperature),
	}
}

func (s *Service) requestAttributes(source, target string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSourceLanguage.String(source),
		AttrTargetLanguage.String(target),
		AttrRequestModel.String(s.opts.Model),
		AttrDeployment.String(s.opts.Deployment),
		AttrTemperature.Float64(s.opts.Temperature),
		AttrMaxTokens.Int(s.opts.MaxTokens),
	}
}

func (s *Service) responseModel(resp *providers.ChatResponse) string {
	if resp.Model != "" {
		return resp.Model
	}
	return s.opts.Model
}

func parseScore(text string) (float64, error) {
	score, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("evaluation %q is not a number: %w", text, err)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, fmt.Errorf("evaluation %v is outside [0, 1]", score)
	}
	return score, nil
}

func gatewayError(operation string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.NewDomainError(services.ErrorTypeExternal, services.ErrGatewayTimeout.Message, err)
	case errors.Is(err, providers.ErrEmptyResponse):
		return services.NewDomainError(services.ErrorTypeExternal, services.ErrGatewayEmptyResponse.Message, err)
	default:
		return services.NewDomainError(services.ErrorTypeExternal, services.ErrGatewayError.Message, err).
			WithDetail("operation", operation)
	}
}

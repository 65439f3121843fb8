package translation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/internal/observability"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/repositories"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// EvaluationProcessorName names the evaluation dispatcher in logs and metrics.
const EvaluationProcessorName = "translation_evaluation"

// ErrTranslationFailed is returned by EvaluationRequestFromSpan for spans that
// did not end with status ok.
var ErrTranslationFailed = errors.New("translation span did not complete successfully")

// Evaluator scores translations.
type Evaluator interface {
	Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResult, error)
}

// EvaluationRequestFromSpan rebuilds an evaluation request from a finished
// translate_text span.
func EvaluationRequestFromSpan(span observability.SpanSnapshot) (EvaluateRequest, error) {
	if span.Status.Code != codes.Ok {
		return EvaluateRequest{}, ErrTranslationFailed
	}

	attrs := span.Attributes
	requested, err := attrs.String(AttrRequestedText)
	if err != nil {
		return EvaluateRequest{}, err
	}
	translated, err := attrs.String(AttrTranslatedText)
	if err != nil {
		return EvaluateRequest{}, err
	}
	source, err := attrs.String(AttrSourceLanguage)
	if err != nil {
		return EvaluateRequest{}, err
	}
	target, err := attrs.String(AttrTargetLanguage)
	if err != nil {
		return EvaluateRequest{}, err
	}

	req := EvaluateRequest{
		RequestedText:  requested,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
	}

	if raw := attrs.StringOr(AttrTranslationID, ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return EvaluateRequest{}, fmt.Errorf("span attribute %q: %w", AttrTranslationID, err)
		}
		req.TranslationID = id
	}
	return req, nil
}

// NewEvaluationHandler evaluates a translation and stores the score when the
// request names a translation. repo may be nil.
func NewEvaluationHandler(evaluator Evaluator, repo repositories.EvaluationRepository, logger *zap.Logger) observability.Handler[EvaluateRequest] {
	return func(ctx context.Context, req EvaluateRequest) error {
		result, err := evaluator.Evaluate(ctx, &req)
		if err != nil {
			return err
		}

		logger.Info("translation evaluated",
			zap.String("translation_id", req.TranslationID.String()),
			zap.String("source_language", req.SourceLanguage),
			zap.String("target_language", req.TargetLanguage),
			zap.Float64("score", result.Score))

		if repo == nil || req.TranslationID == uuid.Nil {
			return nil
		}

		evaluation := models.NewEvaluation(req.TranslationID, req.SourceLanguage, req.TargetLanguage, result.Score, result.Model)
		if err := repo.Create(ctx, evaluation); err != nil {
			return fmt.Errorf("failed to store evaluation: %w", err)
		}
		return nil
	}
}

// NewEvaluationProcessor returns the span processor that evaluates every
// successful translation in the background.
func NewEvaluationProcessor(evaluator Evaluator, repo repositories.EvaluationRepository, logger *zap.Logger, opts ...observability.DispatchOption) *observability.AsyncCallProcessor[EvaluateRequest] {
	opts = append([]observability.DispatchOption{
		observability.WithTargets(SpanTranslate),
		observability.WithProcessorName(EvaluationProcessorName),
	}, opts...)

	return observability.NewAsyncCallProcessor(
		NewEvaluationHandler(evaluator, repo, logger),
		EvaluationRequestFromSpan,
		logger,
		opts...,
	)
}

package feedback

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/repositories"
	"github.com/upb/ai-translator/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SpanSubmit names the span opened for each feedback submission.
const SpanSubmit = "submit_feedback"

// SubmitRequest is a thumbs up/down vote on a translation
type SubmitRequest struct {
	TranslationID string `json:"translation_id" validate:"required"`
	Feedback      string `json:"feedback" validate:"required,oneof=thumbs_up thumbs_down"`
}

// Service records user feedback on translations
type Service struct {
	repo   repositories.FeedbackRepository
	tracer trace.Tracer
	logger *zap.Logger
}

// NewService creates a new feedback service
func NewService(repo repositories.FeedbackRepository, tracer trace.Tracer, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		tracer: tracer,
		logger: logger,
	}
}

// Submit validates and stores a feedback entry
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*models.Feedback, error) {
	translationID, err := uuid.Parse(strings.TrimSpace(req.TranslationID))
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidTranslationID.Message, err)
	}

	kind := models.FeedbackKind(req.Feedback)
	if !kind.IsValid() {
		return nil, services.ErrInvalidFeedback
	}

	ctx, span := s.tracer.Start(ctx, SpanSubmit, trace.WithAttributes(
		attribute.String("translation.id", translationID.String()),
		attribute.String("feedback.kind", string(kind)),
	))
	defer span.End()

	fb := models.NewFeedback(translationID, kind)
	if err := s.repo.Create(ctx, fb); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to store feedback",
			zap.String("translation_id", translationID.String()),
			zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeInternal, services.ErrDatabaseError.Message, err).
			WithDetail("operation", "store_feedback")
	}

	s.logger.Info("feedback received",
		zap.String("translation_id", translationID.String()),
		zap.String("feedback", string(kind)))

	return fb, nil
}

// List returns the feedback given on a translation
func (s *Service) List(ctx context.Context, translationID uuid.UUID) ([]*models.Feedback, error) {
	entries, err := s.repo.ListByTranslation(ctx, translationID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, services.ErrDatabaseError.Message, err).
			WithDetail("operation", "list_feedback")
	}
	return entries, nil
}

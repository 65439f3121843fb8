package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/models"
)

// EvaluationRepository handles translation evaluation records
type EvaluationRepository interface {
	// Create stores a new evaluation
	Create(ctx context.Context, evaluation *models.Evaluation) error

	// ListByTranslation retrieves the evaluations of a translation, oldest first
	ListByTranslation(ctx context.Context, translationID uuid.UUID) ([]*models.Evaluation, error)
}

// FeedbackRepository handles user feedback records
type FeedbackRepository interface {
	// Create stores a new feedback entry
	Create(ctx context.Context, feedback *models.Feedback) error

	// ListByTranslation retrieves the feedback given on a translation, oldest first
	ListByTranslation(ctx context.Context, translationID uuid.UUID) ([]*models.Feedback, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Evaluations EvaluationRepository
	Feedback    FeedbackRepository
}

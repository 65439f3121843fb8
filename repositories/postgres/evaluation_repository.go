package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/repositories"
	"go.uber.org/zap"
)

// EvaluationRepository implements the repositories.EvaluationRepository interface
type EvaluationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *DB, logger *zap.Logger) repositories.EvaluationRepository {
	return &EvaluationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new evaluation
func (r *EvaluationRepository) Create(ctx context.Context, e *models.Evaluation) error {
	query := `
		INSERT INTO translation_evaluations (
			id, translation_id, source_language, target_language, score, model, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.TranslationID,
		e.SourceLanguage,
		e.TargetLanguage,
		e.Score,
		e.Model,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}

	r.logger.Debug("evaluation inserted",
		zap.String("id", e.ID.String()),
		zap.String("translation_id", e.TranslationID.String()))
	return nil
}

// ListByTranslation retrieves the evaluations of a translation
func (r *EvaluationRepository) ListByTranslation(ctx context.Context, translationID uuid.UUID) ([]*models.Evaluation, error) {
	query := `
		SELECT id, translation_id, source_language, target_language, score, model, created_at
		FROM translation_evaluations
		WHERE translation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, translationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	evaluations := make([]*models.Evaluation, 0)
	for rows.Next() {
		e := &models.Evaluation{}
		if err := rows.Scan(
			&e.ID,
			&e.TranslationID,
			&e.SourceLanguage,
			&e.TargetLanguage,
			&e.Score,
			&e.Model,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluations: %w", err)
	}

	return evaluations, nil
}

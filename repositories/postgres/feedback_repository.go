package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/repositories"
	"go.uber.org/zap"
)

// FeedbackRepository implements the repositories.FeedbackRepository interface
type FeedbackRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB, logger *zap.Logger) repositories.FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO translation_feedback (id, translation_id, kind, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, fb.ID, fb.TranslationID, fb.Kind, fb.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	r.logger.Debug("feedback inserted", zap.String("id", fb.ID.String()), zap.String("kind", string(fb.Kind)))
	return nil
}

// ListByTranslation retrieves the feedback given on a translation
func (r *FeedbackRepository) ListByTranslation(ctx context.Context, translationID uuid.UUID) ([]*models.Feedback, error) {
	query := `
		SELECT id, translation_id, kind, created_at
		FROM translation_feedback
		WHERE translation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, translationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.Feedback, 0)
	for rows.Next() {
		fb := &models.Feedback{}
		if err := rows.Scan(&fb.ID, &fb.TranslationID, &fb.Kind, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return entries, nil
}

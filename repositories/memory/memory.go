// Package memory holds in-process repositories used when no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/repositories"
)

// NewRepositories returns empty in-memory repositories.
func NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Evaluations: NewEvaluationRepository(),
		Feedback:    NewFeedbackRepository(),
	}
}

// EvaluationRepository keeps evaluations in memory, indexed by translation.
type EvaluationRepository struct {
	mu            sync.RWMutex
	byTranslation map[uuid.UUID][]*models.Evaluation
}

// NewEvaluationRepository creates an empty evaluation repository.
func NewEvaluationRepository() *EvaluationRepository {
	return &EvaluationRepository{byTranslation: make(map[uuid.UUID][]*models.Evaluation)}
}

func (r *EvaluationRepository) Create(_ context.Context, e *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *e
	r.byTranslation[e.TranslationID] = append(r.byTranslation[e.TranslationID], &stored)
	return nil
}

func (r *EvaluationRepository) ListByTranslation(_ context.Context, translationID uuid.UUID) ([]*models.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Evaluation, 0, len(r.byTranslation[translationID]))
	for _, e := range r.byTranslation[translationID] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

// FeedbackRepository keeps feedback in memory, indexed by translation.
type FeedbackRepository struct {
	mu            sync.RWMutex
	byTranslation map[uuid.UUID][]*models.Feedback
}

// NewFeedbackRepository creates an empty feedback repository.
func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{byTranslation: make(map[uuid.UUID][]*models.Feedback)}
}

func (r *FeedbackRepository) Create(_ context.Context, fb *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *fb
	r.byTranslation[fb.TranslationID] = append(r.byTranslation[fb.TranslationID], &stored)
	return nil
}

func (r *FeedbackRepository) ListByTranslation(_ context.Context, translationID uuid.UUID) ([]*models.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Feedback, 0, len(r.byTranslation[translationID]))
	for _, fb := range r.byTranslation[translationID] {
		c := *fb
		out = append(out, &c)
	}
	return out, nil
}

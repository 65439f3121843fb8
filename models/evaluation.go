package models

import (
	"time"

	"github.com/google/uuid"
)

// Evaluation is a quality score the evaluator assigned to a translation
type Evaluation struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TranslationID  uuid.UUID `json:"translation_id" db:"translation_id"`
	SourceLanguage string    `json:"source_language" db:"source_language"`
	TargetLanguage string    `json:"target_language" db:"target_language"`
	Score          float64   `json:"score" db:"score"`
	Model          string    `json:"model" db:"model"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Evaluation model
func (Evaluation) TableName() string {
	return "translation_evaluations"
}

// NewEvaluation creates a new Evaluation instance
func NewEvaluation(translationID uuid.UUID, sourceLanguage, targetLanguage string, score float64, model string) *Evaluation {
	return &Evaluation{
		ID:             uuid.New(),
		TranslationID:  translationID,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		Score:          score,
		Model:          model,
		CreatedAt:      time.Now().UTC(),
	}
}

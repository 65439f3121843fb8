package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackKind is the user's verdict on a translation
type FeedbackKind string

const (
	FeedbackThumbsUp   FeedbackKind = "thumbs_up"
	FeedbackThumbsDown FeedbackKind = "thumbs_down"
)

// IsValid reports whether k is a known feedback kind
func (k FeedbackKind) IsValid() bool {
	switch k {
	case FeedbackThumbsUp, FeedbackThumbsDown:
		return true
	}
	return false
}

// Feedback is a thumbs up/down vote on a translation
type Feedback struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	TranslationID uuid.UUID    `json:"translation_id" db:"translation_id"`
	Kind          FeedbackKind `json:"feedback" db:"kind"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Feedback model
func (Feedback) TableName() string {
	return "translation_feedback"
}

// NewFeedback creates a new Feedback instance
func NewFeedback(translationID uuid.UUID, kind FeedbackKind) *Feedback {
	return &Feedback{
		ID:            uuid.New(),
		TranslationID: translationID,
		Kind:          kind,
		CreatedAt:     time.Now().UTC(),
	}
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Evaluation tests
func TestNewEvaluation(t *testing.T) {
	translationID := uuid.New()

	eval := NewEvaluation(translationID, "en", "es", 0.92, "gpt-4o")

	assert.NotEqual(t, uuid.Nil, eval.ID)
	assert.Equal(t, translationID, eval.TranslationID)
	assert.Equal(t, "en", eval.SourceLanguage)
	assert.Equal(t, "es", eval.TargetLanguage)
	assert.Equal(t, 0.92, eval.Score)
	assert.Equal(t, "gpt-4o", eval.Model)
	assert.False(t, eval.CreatedAt.IsZero())
}

func TestEvaluation_TableName(t *testing.T) {
	assert.Equal(t, "translation_evaluations", Evaluation{}.TableName())
}

// Feedback tests
func TestNewFeedback(t *testing.T) {
	translationID := uuid.New()

	fb := NewFeedback(translationID, FeedbackThumbsUp)

	assert.NotEqual(t, uuid.Nil, fb.ID)
	assert.Equal(t, translationID, fb.TranslationID)
	assert.Equal(t, FeedbackThumbsUp, fb.Kind)
	assert.False(t, fb.CreatedAt.IsZero())
}

func TestFeedback_TableName(t *testing.T) {
	assert.Equal(t, "translation_feedback", Feedback{}.TableName())
}

func TestFeedbackKind_IsValid(t *testing.T) {
	tests := []struct {
		kind FeedbackKind
		want bool
	}{
		{FeedbackThumbsUp, true},
		{FeedbackThumbsDown, true},
		{"thumbs_sideways", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.IsValid())
		})
	}
}

func TestFeedback_JSONUsesRequestFieldName(t *testing.T) {
	fb := NewFeedback(uuid.New(), FeedbackThumbsDown)

	data, err := json.Marshal(fb)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "thumbs_down", raw["feedback"])
}

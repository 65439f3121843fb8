package translation

import (
	"github.com/google/uuid"
	"github.com/upb/ai-translator/services/providers"
)

// TranslateRequest asks for source text to be translated between two language codes
type TranslateRequest struct {
	SourceText     string `json:"source_text" validate:"required"`
	SourceLanguage string `json:"source_language" validate:"required"`
	TargetLanguage string `json:"target_language" validate:"required"`
}

// TranslateResult is the outcome of a successful translation
type TranslateResult struct {
	TranslationID uuid.UUID       `json:"translation_id"`
	TargetText    string          `json:"target_text"`
	Model         string          `json:"model"`
	Usage         providers.Usage `json:"usage"`
}

// EvaluateRequest asks the evaluator to score a translation
type EvaluateRequest struct {
	RequestedText  string `json:"requested_translation_text" validate:"required"`
	TranslatedText string `json:"translated_text" validate:"required"`
	SourceLanguage string `json:"source_language" validate:"required"`
	TargetLanguage string `json:"target_language" validate:"required"`

	// TranslationID links the evaluation to a translation; zero when evaluated on demand
	TranslationID uuid.UUID `json:"translation_id,omitempty"`
}

// EvaluateResult is the evaluator's verdict
type EvaluateResult struct {
	Evaluation string          `json:"evaluation"`
	Score      float64         `json:"score"`
	Model      string          `json:"model"`
	Usage      providers.Usage `json:"usage"`
}

// Options are the fixed gateway parameters of the service
type Options struct {
	Model       string
	Deployment  string
	MaxTokens   int
	Temperature float64
}

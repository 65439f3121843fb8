package translation

import "go.opentelemetry.io/otel/attribute"

// Span names of the instrumented operations.
const (
	SpanTranslate = "translate_text"
	SpanEvaluate  = "evaluate_translation"
)

// Operation labels used on the failure counter.
const (
	OperationTranslate = "translate"
	OperationEvaluate  = "evaluate"
)

// Span attribute keys.
const (
	AttrTranslationID  = attribute.Key("translation.id")
	AttrSourceLanguage = attribute.Key("translation.source_language")
	AttrTargetLanguage = attribute.Key("translation.target_language")
	AttrRequestedText  = attribute.Key("translation.requested_text")
	AttrTranslatedText = attribute.Key("translation.translated_text")
	AttrContainsPII    = attribute.Key("translation.contains_pii")

	AttrEvaluationRequestedText  = attribute.Key("evaluation.requested_text")
	AttrEvaluationTranslatedText = attribute.Key("evaluation.translated_text")
	AttrEvaluationScore          = attribute.Key("evaluation.score")

	AttrRequestModel  = attribute.Key("gen_ai.request.model")
	AttrDeployment    = attribute.Key("gen_ai.deployment")
	AttrTemperature   = attribute.Key("gen_ai.request.temperature")
	AttrMaxTokens     = attribute.Key("gen_ai.request.max_tokens")
	AttrInputTokens   = attribute.Key("gen_ai.usage.input_tokens")
	AttrOutputTokens  = attribute.Key("gen_ai.usage.output_tokens")
	AttrTotalTokens   = attribute.Key("gen_ai.usage.total_tokens")
	AttrResponseModel = attribute.Key("gen_ai.response.model")
)

// Metric tag keys.
const (
	TagModel          = attribute.Key("model")
	TagDeployment     = attribute.Key("deployment")
	TagSourceLanguage = attribute.Key("source_language")
	TagTargetLanguage = attribute.Key("target_language")
	TagTemperature    = attribute.Key("temperature")
	TagOperation      = attribute.Key("operation")
)

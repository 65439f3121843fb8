package translation

import "fmt"

const translatorPrompt = `You are a translator. YOU ONLY TRANSLATE. You are asked to translate the text you receive from %s to %s.
The translation should avoid the following issues:
- Distortion: An element of meaning in the source text is altered in the target text.
- Unjustified omission: An element of meaning in the source text is not transferred into the target text.
- Unjustified addition: An element of meaning that does not exist in the source text is added to the target text.
- Inappropriate register: Incorrect variety of language or inappropriate vocabulary for the text type (e.g. inappropriate level of formality or informality).
- Unidiomatic expression: An expression sounding unnatural or awkward to a native speaker irrespective of the context in which the expression is used, but the intended meaning can be understood.
- Error of grammar, syntax, spelling or punctuation.`

const evaluatorPrompt = "You are an evaluator tasked with assessing a translation from %s to %s. " +
	"Please evaluate the translation based on the following criteria:\n\n" +
	"- **Correct language**: The target language is the expected one.\n" +
	"- **Accuracy**: The translation should faithfully convey the meaning of the source text.\n" +
	"- **Fluency**: The translation should be grammatically correct and sound natural in the target language.\n" +
	"- **Style**: The translation should preserve the style and tone of the source text.\n\n" +
	"Return a single score between **0** (exclusive) and **1** (exclusive), where **0** represents an incorrect translation and **1** represents a perfect translation.\n\n" +
	"YOU MUST RETURN ONLY THE VALUE OF THE EVALUATION."

func translatorSystemPrompt(source, target string) string {
	return fmt.Sprintf(translatorPrompt, source, target)
}

func evaluatorSystemPrompt(source, target string) string {
	return fmt.Sprintf(evaluatorPrompt, source, target)
}

func evaluatorUserContent(requested, translated string) string {
	return fmt.Sprintf("Requested Translation Text: %s\nTranslated Text: %s", requested, translated)
}

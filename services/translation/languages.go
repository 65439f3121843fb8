package translation

import (
	"fmt"
	"sort"

	"github.com/upb/ai-translator/services"
)

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ja": "Japanese",
}

// LanguageName resolves a language code to the name used in prompts.
func LanguageName(code string) (string, bool) {
	name, ok := languageNames[code]
	return name, ok
}

// SupportedLanguages returns the accepted language codes in sorted order.
func SupportedLanguages() []string {
	codes := make([]string, 0, len(languageNames))
	for code := range languageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func resolveLanguage(field, code string) (string, error) {
	name, ok := LanguageName(code)
	if !ok {
		return "", services.NewDomainError(services.ErrorTypeValidation, fmt.Sprintf("unsupported language %q", code), nil).
			WithDetail("field", field).
			WithDetail("supported", SupportedLanguages())
	}
	return name, nil
}

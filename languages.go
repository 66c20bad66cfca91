package livetl

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
	"yi": true, // Yiddish
}

// BaseLanguage extracts the lowercase base code ("pt" from "pt_BR" or "pt-BR").
func BaseLanguage(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	base, _, _ := strings.Cut(code, "-")
	return strings.ToLower(base)
}

// NormalizeLanguageCode validates a model-reported language code and returns
// its ISO 639-1 form. The second return value is false when the input is not a
// recognizable language.
func NormalizeLanguageCode(code string) (string, bool) {
	code = strings.ToLower(strings.Trim(code, " \t\r\n\"'`.,"))
	if code == "" {
		return "", false
	}

	base, err := language.ParseBase(BaseLanguage(code))
	if err != nil {
		return "", false
	}

	s := base.String()
	if len(s) != 2 {
		// Only accept languages that have a two-letter code.
		return "", false
	}
	return s, true
}

// LanguageName returns the English display name for a code, or the code itself.
func LanguageName(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[BaseLanguage(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

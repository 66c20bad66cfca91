package livetl

import (
	"fmt"
	"strings"
)

// BuildTranslationPrompt renders the instruction sent to the model for req.
// Context lines, when present, precede the instruction in their original order.
func BuildTranslationPrompt(req Request) string {
	var b strings.Builder

	if len(req.Context) > 0 {
		b.WriteString("Previous context:\n")
		b.WriteString(strings.Join(req.Context, "\n"))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Translate the following text from %s to %s. ", req.SourceLang, req.TargetLang)
	b.WriteString("Maintain the original tone, style, and emotion. ")
	b.WriteString("Output ONLY the translation without any explanations or additional text.\n\n")
	b.WriteString("Text to translate: \"" + req.Text + "\"")

	return b.String()
}

// BuildDetectionPrompt renders the language detection instruction for text.
func BuildDetectionPrompt(text string) string {
	return "Detect the language of the following text and respond with ONLY the ISO 639-1 language code (e.g., 'en', 'es', 'fr'). Text: \"" + text + "\""
}

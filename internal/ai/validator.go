package ai

import (
	"strings"
	"unicode/utf8"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

const (
	maxRepeatPeriod   = 16
	minPeriodRepeats  = 3
	minRepeatedWords  = 8
	errorPreviewChars = 80
)

var (
	defaultErrorPrefixes = []string{"error:", "i'm sorry", "i’m sorry"}
	defaultErrorPhrases  = []string{"cannot generate", "unable to generate", "as an ai language model"}
)

var _ ports.TextValidator = (*ResponseValidator)(nil)

// ResponseValidator rejects empty text, degenerate repetition and text that
// looks like a refusal or an error message.
type ResponseValidator struct {
	prefixes []string
	phrases  []string
}

func NewResponseValidator(extraPhrases ...string) *ResponseValidator {
	v := &ResponseValidator{
		prefixes: append([]string(nil), defaultErrorPrefixes...),
		phrases:  append([]string(nil), defaultErrorPhrases...),
	}
	for _, p := range extraPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			v.phrases = append(v.phrases, p)
		}
	}
	return v
}

func (v *ResponseValidator) Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return errors.ErrEmptyResponse
	}

	lower := strings.ToLower(trimmed)
	for _, prefix := range v.prefixes {
		if strings.HasPrefix(lower, prefix) {
			return errors.ErrErrorPattern.WithContext("detail", preview(trimmed))
		}
	}
	for _, phrase := range v.phrases {
		if strings.Contains(lower, phrase) {
			return errors.ErrErrorPattern.WithContext("detail", phrase)
		}
	}

	if isDegenerate(trimmed) {
		return errors.ErrDegenerateResponse.WithContext("detail", preview(trimmed))
	}
	return nil
}

// isDegenerate reports text made of a short unit repeated at least three
// times, or of one word repeated over and over.
func isDegenerate(text string) bool {
	runes := []rune(text)
	for p := 1; p <= maxRepeatPeriod && p*minPeriodRepeats <= len(runes); p++ {
		if periodic(runes, p) {
			return true
		}
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) < minRepeatedWords {
		return false
	}
	for _, w := range words[1:] {
		if w != words[0] {
			return false
		}
	}
	return true
}

func periodic(runes []rune, p int) bool {
	for i := p; i < len(runes); i++ {
		if runes[i] != runes[i-p] {
			return false
		}
	}
	return true
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= errorPreviewChars {
		return text
	}
	return string([]rune(text)[:errorPreviewChars]) + "..."
}

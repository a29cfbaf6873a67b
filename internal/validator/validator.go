// Package validator checks that a refinement result is in the expected language.
package validator

import (
	"fmt"
	"strings"

	"github.com/minjaelab/prompter/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks that the enhanced prompt reads as English and the
// back-translation as Korean. The underlying language detector is expensive
// to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// IsValid returns true when text appears to be written in wantLang
// (an ISO 639-1 code, "en" or "ko").
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. When the detected language differs
// from wantLang the returned error names both codes.
func (v *Validator) IsValid(text, wantLang string) (bool, error) {
	if wantLang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("text is empty")
	}

	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		// Ambiguous language — cannot validate, pass through.
		return true, nil
	}

	if !strings.EqualFold(detected, wantLang) {
		return false, fmt.Errorf("expected %s but detected %s", wantLang, detected)
	}

	return true, nil
}

// CheckRefinement validates both halves of a refinement result. It returns
// one error per field that fails language validation.
func (v *Validator) CheckRefinement(enhancedEng, backTranslationKor string) []error {
	var errs []error
	if _, err := v.IsValid(enhancedEng, "en"); err != nil {
		errs = append(errs, fmt.Errorf("enhanced prompt: %w", err))
	}
	if _, err := v.IsValid(backTranslationKor, "ko"); err != nil {
		errs = append(errs, fmt.Errorf("back-translation: %w", err))
	}
	return errs
}

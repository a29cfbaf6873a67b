// Package detector identifies whether a text reads as Korean or English.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// Detector distinguishes Korean from English text. The language set is
// restricted to the two languages the service handles, which keeps the
// model small and the classification sharp.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Korean, lingua.English).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// Package verifier cross-checks a refinement's back-translation against an
// independent machine translation of the enhanced prompt.
package verifier

import (
	"context"
	"fmt"
	"os"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// Report scores how closely the model's own back-translation tracks an
// independent machine translation of the enhanced English prompt.
type Report struct {
	MachineTranslationKor string  `json:"machine_translation_kor"`
	Similarity            float64 `json:"similarity"`
}

// GoogleVerifier machine-translates the enhanced prompt back to Korean with
// the Cloud Translation API and measures rune-level similarity against the
// model's back-translation.
type GoogleVerifier struct {
	credentials string
}

func NewGoogleVerifier(credentials string) *GoogleVerifier {
	return &GoogleVerifier{credentials: credentials}
}

func (v *GoogleVerifier) Name() string {
	return "google"
}

func (v *GoogleVerifier) Verify(ctx context.Context, enhancedEng, backTranslationKor string) (*Report, error) {
	if v.credentials != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", v.credentials)
	}

	opts := []option.ClientOption{}
	if v.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(v.credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{enhancedEng}, language.Korean, &translate.Options{
		Source: language.English,
	})
	if err != nil {
		return nil, fmt.Errorf("translation failed: %v", err)
	}

	if len(translations) == 0 {
		return nil, fmt.Errorf("no translation returned")
	}

	machine := translations[0].Text
	return &Report{
		MachineTranslationKor: machine,
		Similarity:            stringSimilarity(machine, backTranslationKor),
	}, nil
}

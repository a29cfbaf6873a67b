package detector

import (
	"testing"
)

func TestDetector_Detect(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantLang string
		wantOK   bool
	}{
		{
			name:     "empty text",
			text:     "",
			wantLang: "",
			wantOK:   false,
		},
		{
			name:     "english text",
			text:     "Plan a detailed five-day trip itinerary for me.",
			wantLang: "English",
			wantOK:   true,
		},
		{
			name:     "korean text",
			text:     "여행 계획을 자세하게 짜 주세요.",
			wantLang: "Korean",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if ok && lang.String() != tt.wantLang {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_DetectISO(t *testing.T) {
	d := New()

	iso, ok := d.DetectISO("이 문장은 한국어로 작성되었습니다.")
	if !ok {
		t.Fatal("expected detection to succeed")
	}
	if iso != "KO" {
		t.Errorf("expected KO, got %q", iso)
	}

	iso, ok = d.DetectISO("This sentence is written entirely in English.")
	if !ok {
		t.Fatal("expected detection to succeed")
	}
	if iso != "EN" {
		t.Errorf("expected EN, got %q", iso)
	}
}

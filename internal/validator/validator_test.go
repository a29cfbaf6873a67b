package validator

import (
	"testing"
)

func TestIsValid_EmptyWantLang(t *testing.T) {
	v := New()

	valid, err := v.IsValid("Some refined text", "")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for empty wantLang")
	}
}

func TestIsValid_EmptyText(t *testing.T) {
	v := New()

	valid, err := v.IsValid("", "en")
	if err == nil {
		t.Error("expected error for empty text")
	}
	if valid {
		t.Error("expected valid=false for empty text")
	}
}

func TestIsValid_ShortText(t *testing.T) {
	v := New()

	valid, err := v.IsValid("Hi", "en") // below minValidationLength
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for short text (below threshold)")
	}
}

func TestIsValid_EnglishText(t *testing.T) {
	v := New()

	text := "Plan a detailed five-day itinerary covering food, lodging and transport."
	valid, err := v.IsValid(text, "en")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for English text")
	}
}

func TestIsValid_KoreanTextAgainstEnglish(t *testing.T) {
	v := New()

	text := "음식, 숙박, 교통을 포함한 자세한 5일 일정을 계획해 주세요."
	valid, err := v.IsValid(text, "en")
	if err == nil {
		t.Error("expected error for Korean text validated as English")
	}
	if valid {
		t.Error("expected valid=false for Korean text validated as English")
	}
}

func TestCheckRefinement(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		eng      string
		kor      string
		wantErrs int
	}{
		{
			name:     "both fields in the right language",
			eng:      "Plan a detailed five-day trip itinerary for a first-time visitor.",
			kor:      "처음 방문하는 사람을 위한 자세한 5일 여행 일정을 계획해 주세요.",
			wantErrs: 0,
		},
		{
			name:     "swapped languages",
			eng:      "처음 방문하는 사람을 위한 자세한 5일 여행 일정을 계획해 주세요.",
			kor:      "Plan a detailed five-day trip itinerary for a first-time visitor.",
			wantErrs: 2,
		},
		{
			name:     "short fields pass",
			eng:      "Plan a trip",
			kor:      "여행",
			wantErrs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.CheckRefinement(tt.eng, tt.kor)
			if len(errs) != tt.wantErrs {
				t.Errorf("CheckRefinement() returned %d errors (%v), want %d", len(errs), errs, tt.wantErrs)
			}
		})
	}
}

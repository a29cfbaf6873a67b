package verifier

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"여행 계획", "여행 일정", 2},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStringSimilarity(t *testing.T) {
	if got := stringSimilarity("abc", "abc"); got != 1.0 {
		t.Errorf("identical strings should score 1.0, got %f", got)
	}
	if got := stringSimilarity("", ""); got != 1.0 {
		t.Errorf("empty strings should score 1.0, got %f", got)
	}
	if got := stringSimilarity("abcd", "wxyz"); got != 0.0 {
		t.Errorf("disjoint strings should score 0.0, got %f", got)
	}

	score := stringSimilarity("5일간의 여행 계획을 세워 주세요", "5일간의 여행 일정을 세워 주세요")
	if score <= 0.5 || score >= 1.0 {
		t.Errorf("near-identical Korean strings should score high but below 1.0, got %f", score)
	}
}

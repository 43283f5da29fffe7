package repository

import (
	"math"
	"testing"
)

func TestTrigramSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical strings",
			a:    "question",
			b:    "question",
			want: 1.0,
		},
		{
			name: "identical after case folding",
			a:    "Question",
			b:    "qUESTION",
			want: 1.0,
		},
		{
			name: "empty strings",
			a:    "",
			b:    "",
			want: 0.0,
		},
		{
			name: "one empty string",
			a:    "question",
			b:    "",
			want: 0.0,
		},
		{
			name: "punctuation only yields no trigrams",
			a:    "?!",
			b:    "question",
			want: 0.0,
		},
		{
			name: "identical cjk strings",
			a:    "黑人問號",
			b:    "黑人問號",
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrigramSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TrigramSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTrigramSimilarity_Ordering(t *testing.T) {
	// closer strings must score higher
	query := "問號貓"
	near := TrigramSimilarity(query, "問號貓咪")
	far := TrigramSimilarity(query, "黑人问号")

	if near <= far {
		t.Errorf("expected %q closer than %q to %q: near=%v far=%v", "問號貓咪", "黑人问号", query, near, far)
	}
}

func TestTrigramSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"question", "questions"},
		{"黑人問號", "問號"},
		{"word salad", "salad word"},
	}

	for _, p := range pairs {
		ab := TrigramSimilarity(p[0], p[1])
		ba := TrigramSimilarity(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestTrigramSet_WordPadding(t *testing.T) {
	set := trigramSet("cat")
	// "  cat " yields "  c", " ca", "cat", "at "
	want := []string{"  c", " ca", "cat", "at "}
	if len(set) != len(want) {
		t.Fatalf("expected %d trigrams, got %d: %v", len(want), len(set), set)
	}
	for _, tri := range want {
		if _, ok := set[tri]; !ok {
			t.Errorf("missing trigram %q", tri)
		}
	}
}

func TestTrigramSet_SplitsOnNonAlphanumeric(t *testing.T) {
	joined := trigramSet("black-cat")
	separate := trigramSet("black cat")

	if len(joined) != len(separate) {
		t.Fatalf("hyphen and space should split identically: %v vs %v", joined, separate)
	}
	for tri := range joined {
		if _, ok := separate[tri]; !ok {
			t.Errorf("trigram %q missing from space-split variant", tri)
		}
	}
}

package enrichment

import "testing"

func TestNoProgressTrueForIdenticalSets(t *testing.T) {
	before := []string{"Which page?", "What colour?"}
	after := []string{"what colour?", "which page?"}
	if !noProgress(before, after) {
		t.Fatal("expected no progress for a reordered, case-differing identical set")
	}
}

func TestNoProgressFalseWhenAQuestionResolves(t *testing.T) {
	before := []string{"which page", "what colour"}
	after := []string{"what colour"}
	if noProgress(before, after) {
		t.Fatal("expected progress when a question drops out of the missing set")
	}
}

func TestNoProgressFalseWhenSetGrows(t *testing.T) {
	before := []string{"which page"}
	after := []string{"which page", "what colour"}
	if noProgress(before, after) {
		t.Fatal("expected progress flag false when the missing set grows (still a size change)")
	}
}

func TestNoProgressTrueForBothEmpty(t *testing.T) {
	if !noProgress(nil, []string{}) {
		t.Fatal("two empty missing sets count as no progress")
	}
}

func TestNormalizeQuestionStripsPunctuationAndCase(t *testing.T) {
	got := normalizeQuestion("  What's the TARGET color?! ")
	want := "whats the target color"
	if got != want {
		t.Fatalf("normalizeQuestion() = %q, want %q", got, want)
	}
}

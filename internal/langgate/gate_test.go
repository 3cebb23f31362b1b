package langgate

import "testing"

func TestEvaluateAcceptsEnglish(t *testing.T) {
	r := Evaluate("the quick brown fox is jumping over the lazy dog and it was fun", 5, 0.2)
	if !r.Accepted {
		t.Errorf("expected English prose to be accepted, got %+v", r)
	}
}

func TestEvaluateRejectsTooFewFunctionWords(t *testing.T) {
	r := Evaluate("lorem ipsum dolor sit amet consectetur", 5, 0.2)
	if r.Accepted {
		t.Errorf("expected rejection for low function-word count, got %+v", r)
	}
}

func TestEvaluateRejectsHighNonASCIIRatio(t *testing.T) {
	r := Evaluate("的 是 在 了 和 有 这 中", 0, 0.2)
	if r.Accepted {
		t.Errorf("expected rejection for high non-ASCII ratio, got %+v", r)
	}
	if r.NonASCIIRatio <= 0.2 {
		t.Errorf("NonASCIIRatio = %v, want > 0.2", r.NonASCIIRatio)
	}
}

func TestEvaluateEmptyText(t *testing.T) {
	r := Evaluate("", 1, 0.2)
	if r.Accepted {
		t.Error("empty text should never be accepted when a positive hit count is required")
	}
	if r.NonASCIIRatio != 0 {
		t.Errorf("NonASCIIRatio for empty text = %v, want 0", r.NonASCIIRatio)
	}
}

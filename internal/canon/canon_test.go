package canon

import "testing"

func TestCanonicalizeWord(t *testing.T) {
	q, err := Canonicalize("  Résumé  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Canonical != "résumé" {
		t.Errorf("canonical = %q, want %q", q.Canonical, "résumé")
	}
	if q.Kind != KindWord {
		t.Errorf("kind = %v, want %v", q.Kind, KindWord)
	}
}

func TestCanonicalizeSentence(t *testing.T) {
	cases := []string{
		"Break a leg.",
		"break a leg",
		"once in a blue moon!",
	}
	for _, raw := range cases {
		q, err := Canonicalize(raw)
		if err != nil {
			t.Fatalf("Canonicalize(%q): unexpected error: %v", raw, err)
		}
		if q.Kind != KindSentence {
			t.Errorf("Canonicalize(%q).Kind = %v, want %v", raw, q.Kind, KindSentence)
		}
	}
}

func TestCanonicalizeRejectsEmpty(t *testing.T) {
	if _, err := Canonicalize("   "); err == nil {
		t.Fatal("expected error for blank input")
	}
}

func TestCanonicalizeRejectsTooLong(t *testing.T) {
	long := make([]byte, maxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := Canonicalize(string(long)); err == nil {
		t.Fatal("expected error for over-length input")
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	first, err := Canonicalize("Piece Of Cake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Canonicalize(first.Canonical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Canonical != second.Canonical || first.Kind != second.Kind {
		t.Errorf("canonicalize not idempotent: %+v vs %+v", first, second)
	}
}

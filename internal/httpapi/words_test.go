package httpapi

import "testing"

func TestParseIntDefaultValid(t *testing.T) {
	if n := parseIntDefault("25", 50); n != 25 {
		t.Errorf("parseIntDefault = %d, want 25", n)
	}
}

func TestParseIntDefaultEmpty(t *testing.T) {
	if n := parseIntDefault("", 50); n != 50 {
		t.Errorf("parseIntDefault(empty) = %d, want default 50", n)
	}
}

func TestParseIntDefaultInvalid(t *testing.T) {
	if n := parseIntDefault("notanumber", 50); n != 50 {
		t.Errorf("parseIntDefault(invalid) = %d, want default 50", n)
	}
}

func TestParseIntDefaultNegativeRejected(t *testing.T) {
	if n := parseIntDefault("-5", 50); n != 50 {
		t.Errorf("parseIntDefault(-5) = %d, want default 50 (negative rejected)", n)
	}
}

package utils

import "testing"

func TestHashIPNeverReturnsRaw(t *testing.T) {
	raw := "203.0.113.42"
	hashed := HashIP(raw)
	if hashed == raw {
		t.Fatalf("raw IP leaked through hashing")
	}
	if len(hashed) != 64 {
		t.Errorf("expected hex sha256 (64 chars), got %d", len(hashed))
	}
}

func TestHashIPDeterministic(t *testing.T) {
	if HashIP("10.0.0.1") != HashIP("10.0.0.1") {
		t.Errorf("same input must hash to same value")
	}
	if HashIP("10.0.0.1") == HashIP("10.0.0.2") {
		t.Errorf("different inputs should not collide")
	}
}

func TestHashIPPlaceholders(t *testing.T) {
	// Client-side placeholders and blanks must not produce fake hashes.
	for _, in := range []string{"", "  ", "unknown", "client"} {
		if got := HashIP(in); got != "" {
			t.Errorf("HashIP(%q) = %q, want empty", in, got)
		}
	}
}

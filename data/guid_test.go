package data

import (
	"strings"
	"testing"
)

func TestGUID_NewGUID(t *testing.T) {
	seen := make(map[GUID]struct{})

	for i := 0; i < 1000; i++ {
		g := NewGUID()

		if !g.IsValid() {
			t.Fatal("generated identifier is not valid")
		}

		if _, exists := seen[g]; exists {
			t.Fatalf("duplicate identifier generated: %s", g)
		}
		seen[g] = struct{}{}
	}
}

func TestGUID_StringRoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		g := NewGUID()

		s := g.String()
		if len(s) != 36 {
			t.Fatalf("expected 36-character form, got %q", s)
		}
		if s != strings.ToUpper(s) {
			t.Errorf("expected uppercase form, got %q", s)
		}

		parsed, ok := ParseGUID(s)
		if !ok {
			t.Fatalf("failed to parse %q", s)
		}
		if parsed != g {
			t.Errorf("round-trip mismatch: %s != %s", parsed, g)
		}
	}
}

func TestGUID_ParseCaseInsensitive(t *testing.T) {
	g := NewGUID()

	parsed, ok := ParseGUID(strings.ToLower(g.String()))
	if !ok {
		t.Fatal("failed to parse lowercase form")
	}

	if parsed != g {
		t.Errorf("case-insensitive parse mismatch: %s != %s", parsed, g)
	}
}

func TestGUID_ParseMalformed(t *testing.T) {
	inputs := []string{
		"",
		"not-a-guid",
		"00000000-0000-0000-0000-00000000000",    // too short
		"00000000-0000-0000-0000-0000000000000",  // too long
		"zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz",   // non-hex
		"{12345678-1234-1234-1234-123456789abc}", // braced form rejected
	}

	for _, input := range inputs {
		if _, ok := ParseGUID(input); ok {
			t.Errorf("expected parse failure for %q", input)
		}
	}
}

func TestGUID_ZeroSentinel(t *testing.T) {
	var zero GUID

	if zero.IsValid() {
		t.Error("zero identifier should be invalid")
	}

	if NewGUID() == zero {
		t.Error("generated identifier equals the zero sentinel")
	}
}

func TestGUID_Ordering(t *testing.T) {
	cases := []struct {
		a, b GUID
		want int
	}{
		{GUID{0, 0}, GUID{0, 0}, 0},
		{GUID{0, 1}, GUID{0, 2}, -1},
		{GUID{1, 0}, GUID{0, ^uint64(0)}, 1},
		{GUID{5, 7}, GUID{5, 7}, 0},
	}

	for _, tc := range cases {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := tc.b.Compare(tc.a); got != -tc.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tc.b, tc.a, got, -tc.want)
		}
	}

	// Trichotomy over random pairs
	for i := 0; i < 100; i++ {
		a, b := NewGUID(), NewGUID()

		holds := 0
		if a.Less(b) {
			holds++
		}
		if b.Less(a) {
			holds++
		}
		if a == b {
			holds++
		}

		if holds != 1 {
			t.Fatalf("trichotomy violated for %s, %s", a, b)
		}
	}
}

func TestGUID_TextMarshaling(t *testing.T) {
	g := NewGUID()

	text, err := g.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var decoded GUID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}

	if decoded != g {
		t.Errorf("text round-trip mismatch: %s != %s", decoded, g)
	}

	if err := decoded.UnmarshalText([]byte("garbage")); err == nil {
		t.Error("expected error for malformed text")
	}
}

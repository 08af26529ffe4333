package compliance

import "testing"

func TestParseMode(t *testing.T) {
	cases := map[string]ComplianceMode{
		"strict":     Strict,
		" STRICT ":   Strict,
		"permissive": Permissive,
		"":           Permissive,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseMode("lenient"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestModeBehavior(t *testing.T) {
	if !Strict.DropsUnauthentic() || Permissive.DropsUnauthentic() {
		t.Fatalf("only strict mode drops unauthentic records")
	}
	if Strict.String() != "strict" || Permissive.String() != "permissive" {
		t.Fatalf("unexpected mode names")
	}
	if ComplianceMode(9).String() != "ComplianceMode(9)" {
		t.Fatalf("unexpected fallback name %q", ComplianceMode(9).String())
	}
}

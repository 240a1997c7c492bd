package shortlink

import "testing"

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !Valid(code) {
			t.Fatalf("Generate() = %q, not a valid code", code)
		}
		if seen[code] {
			t.Fatalf("Generate() repeated %q", code)
		}
		seen[code] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"aB3dE6gH", true},
		{"short", false},
		{"toolongcode", false},
		{"abc-efgh", false},
		{"абвгдежз", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.code); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

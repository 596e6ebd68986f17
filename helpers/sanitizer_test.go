package helpers

import (
	"testing"
	"unicode/utf8"
)

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean ascii", "hello world", "hello world"},
		{"clean unicode", "héllo wörld ✓", "héllo wörld ✓"},
		{"null byte removed", "bad\x00subject", "badsubject"},
		{"only null bytes", "\x00\x00", ""},
		{"invalid sequence removed", "abc\xff\xfedef", "abcdef"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeUTF8(tc.input)
			if got != tc.expected {
				t.Errorf("SanitizeUTF8(%q) = %q, want %q", tc.input, got, tc.expected)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeUTF8(%q) produced invalid UTF-8", tc.input)
			}
		})
	}
}

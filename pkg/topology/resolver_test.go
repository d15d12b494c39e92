package topology

import "testing"

func TestNormalizeOTP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AB12C", "AB12C"},
		{"ab12c", "AB12C"},
		{"  ab12c\n", "AB12C"},
		{"AB12", ""},
		{"AB12CD", ""},
		{"AB 2C", ""},
		{"ab-2c", ""},
		{"", ""},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if normalized := NormalizeOTP(test.input); normalized != test.expected {
				t.Errorf("NormalizeOTP(%q) = %q, want %q", test.input, normalized, test.expected)
			}
		})
	}
}

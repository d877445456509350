package textutil

import "testing"

func TestCleanCaption(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  hello world  ", "hello world"},
		{"empty", "   ", ""},
		{"blank lines dropped", "first\n\n\nsecond", "first\nsecond"},
		{"crlf", "first\r\nsecond\r", "first\nsecond"},
		{"nfc", "cafe\u0301", "caf\u00e9"},
		{"inner spacing kept", "a  b", "a  b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCaption(tt.input); got != tt.want {
				t.Errorf("CleanCaption(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanCaption prepares engine output for a subtitle block. The text is
// NFC-normalized, each line is trimmed, and blank lines are dropped so the
// block never contains the empty line that terminates it. Words are never
// changed.
func CleanCaption(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

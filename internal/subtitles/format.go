package subtitles

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// VTTHeader opens every WebVTT document.
const VTTHeader = "WEBVTT"

// FormatSRTTimestamp renders d as HH:MM:SS,mmm.
func FormatSRTTimestamp(d time.Duration) string {
	return formatTimestamp(d, ',')
}

// FormatVTTTimestamp renders d as HH:MM:SS.mmm.
func FormatVTTTimestamp(d time.Duration) string {
	return formatTimestamp(d, '.')
}

func formatTimestamp(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := int64(d / time.Millisecond)
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, ms)
}

// RenderSRT renders doc in SubRip format. An empty document renders as an
// empty file.
func RenderSRT(doc Document) []byte {
	var buf bytes.Buffer
	for i, cue := range doc {
		index := cue.Index
		if index <= 0 {
			index = i + 1
		}
		fmt.Fprintf(&buf, "%d\n%s --> %s\n%s\n\n",
			index, FormatSRTTimestamp(cue.Start), FormatSRTTimestamp(cue.End), cue.Text)
	}
	return buf.Bytes()
}

// RenderVTT renders doc in WebVTT format. An empty document renders as the
// header alone. A literal "-->" in cue text is written as "--&gt;", since
// WebVTT cue text must not contain the timing arrow.
func RenderVTT(doc Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(VTTHeader)
	buf.WriteString("\n\n")
	for _, cue := range doc {
		fmt.Fprintf(&buf, "%s --> %s\n%s\n\n",
			FormatVTTTimestamp(cue.Start), FormatVTTTimestamp(cue.End), escapeVTTText(cue.Text))
	}
	return buf.Bytes()
}

func escapeVTTText(text string) string {
	return strings.ReplaceAll(text, "-->", "--&gt;")
}

package subtitles

import (
	"fmt"
	"strings"
)

// ValidateSRT checks SubRip content for structural issues.
// Returns a list of issues found; an empty slice means validation passed.
// An empty document is valid.
func ValidateSRT(data []byte) []string {
	doc, err := ParseSRT(data)
	if err != nil {
		return []string{fmt.Sprintf("parse_error: %v", err)}
	}
	var issues []string
	var prevStart int64 = -1
	for i, cue := range doc {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("invalid_index: block %d has index %d", i+1, cue.Index))
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("end_before_start: block %d", i+1))
		}
		if int64(cue.Start) < prevStart {
			issues = append(issues, fmt.Sprintf("non_monotonic_start: block %d", i+1))
		}
		if cue.Text == "" {
			issues = append(issues, fmt.Sprintf("empty_text: block %d", i+1))
		}
		prevStart = int64(cue.Start)
	}
	return issues
}

// VerifyRendered re-reads the SRT and VTT renderings of doc and reports the
// first problem: SRT structural issues, an unparseable VTT, or VTT cues whose
// timings differ from doc.
func VerifyRendered(doc Document, srt, vtt []byte) error {
	if issues := ValidateSRT(srt); len(issues) > 0 {
		return fmt.Errorf("srt: %s", strings.Join(issues, "; "))
	}
	parsed, err := ParseVTT(vtt)
	if err != nil {
		return fmt.Errorf("vtt: %w", err)
	}
	if len(parsed) != len(doc) {
		return fmt.Errorf("vtt: %d cues rendered, %d expected", len(parsed), len(doc))
	}
	for i := range doc {
		if parsed[i].Start != doc[i].Start || parsed[i].End != doc[i].End {
			return fmt.Errorf("vtt: cue %d timing %s --> %s, expected %s --> %s", i+1,
				FormatVTTTimestamp(parsed[i].Start), FormatVTTTimestamp(parsed[i].End),
				FormatVTTTimestamp(doc[i].Start), FormatVTTTimestamp(doc[i].End))
		}
	}
	return nil
}

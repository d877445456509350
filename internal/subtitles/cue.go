package subtitles

import (
	"math"
	"sort"
	"time"

	"vidsub/internal/textutil"
)

// Cue is a single subtitle block.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Document is an ordered sequence of cues with 1-based indexes.
type Document []Cue

// Timestamp converts fractional seconds to a millisecond-precision duration.
// The value is first rounded to the nearest microsecond, absorbing float
// representation error (1.2 is stored as 1.19999...), and then floored to the
// millisecond. Negative and NaN input map to zero.
func Timestamp(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if math.IsInf(seconds, 1) || seconds > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64).Truncate(time.Millisecond)
	}
	micros := int64(math.Round(seconds * 1e6))
	return time.Duration(micros/1000) * time.Millisecond
}

// Builder collects segments into a Document.
type Builder struct {
	cues    []Cue
	skipped int
}

// Add appends one segment. Segments whose cleaned text is empty are skipped.
func (b *Builder) Add(start, end float64, text string) {
	text = textutil.CleanCaption(text)
	if text == "" {
		b.skipped++
		return
	}
	s := Timestamp(start)
	e := Timestamp(end)
	if e < s {
		e = s
	}
	b.cues = append(b.cues, Cue{Start: s, End: e, Text: text})
}

// Skipped reports how many segments were dropped for having no text.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Build orders the collected cues by start time, trims overlaps, and assigns
// indexes. Engine output is normally already ordered, in which case the sort
// is a no-op. The Builder can keep accepting segments afterwards.
func (b *Builder) Build() Document {
	doc := make(Document, len(b.cues))
	copy(doc, b.cues)
	sort.SliceStable(doc, func(i, j int) bool {
		return doc[i].Start < doc[j].Start
	})
	for i := range doc {
		doc[i].Index = i + 1
		if i+1 < len(doc) && doc[i].End > doc[i+1].Start {
			doc[i].End = doc[i+1].Start
		}
	}
	return doc
}

// Segment is the minimal shape FromSegments needs.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// FromSegments builds a Document from an in-memory slice.
func FromSegments(segments []Segment) Document {
	var b Builder
	for _, seg := range segments {
		b.Add(seg.Start, seg.End, seg.Text)
	}
	return b.Build()
}

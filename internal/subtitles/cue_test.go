package subtitles

import (
	"testing"
	"time"
)

func TestBuilderSkipsEmptyTextAndClampsTimes(t *testing.T) {
	var b Builder
	b.Add(-1, 2, "  starts early ")
	b.Add(3, 4, "   ")
	b.Add(5, 4.5, "ends early")

	doc := b.Build()
	if b.Skipped() != 1 {
		t.Fatalf("expected one skipped segment, got %d", b.Skipped())
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc))
	}
	if doc[0].Start != 0 || doc[0].Text != "starts early" {
		t.Fatalf("unexpected first cue %+v", doc[0])
	}
	if doc[1].End != doc[1].Start {
		t.Fatalf("expected end clamped to start, got %+v", doc[1])
	}
	if doc[0].Index != 1 || doc[1].Index != 2 {
		t.Fatalf("unexpected indexes %d %d", doc[0].Index, doc[1].Index)
	}
}

func TestBuilderOrdersAndTrimsOverlaps(t *testing.T) {
	doc := FromSegments([]Segment{
		{Start: 5, End: 7, Text: "third"},
		{Start: 1, End: 3.5, Text: "first"},
		{Start: 3, End: 4, Text: "second"},
	})
	want := []struct {
		text       string
		start, end time.Duration
	}{
		{"first", time.Second, 3 * time.Second},
		{"second", 3 * time.Second, 4 * time.Second},
		{"third", 5 * time.Second, 7 * time.Second},
	}
	if len(doc) != len(want) {
		t.Fatalf("expected %d cues, got %d", len(want), len(doc))
	}
	for i, w := range want {
		c := doc[i]
		if c.Text != w.text || c.Start != w.start || c.End != w.end || c.Index != i+1 {
			t.Fatalf("cue %d = %+v, want %+v", i, c, w)
		}
	}
}

func TestBuilderKeepsEqualStartsInArrivalOrder(t *testing.T) {
	doc := FromSegments([]Segment{
		{Start: 1, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
	})
	if doc[0].Text != "a" || doc[1].Text != "b" {
		t.Fatalf("expected stable order, got %+v", doc)
	}
}

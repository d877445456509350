package transcribe

import (
	"errors"
	"strings"
	"testing"

	"vidsub/internal/services"
)

func TestStreamDecodesLazily(t *testing.T) {
	doc := `{"language": "fr", "segments": [
		{"start": 0.5, "end": 1.25, "text": "Bonjour"},
		{"start": 1.5, "end": 2.0, "text": "le monde", "speaker": "SPEAKER_00"}
	], "word_segments": [{"word": "Bonjour"}]}`
	closed := 0
	s := NewStream(strings.NewReader(doc), func() error { closed++; return nil })

	var got []Segment
	for s.Next() {
		got = append(got, s.Segment())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := []Segment{{0.5, 1.25, "Bonjour"}, {1.5, 2.0, "le monde"}}
	if len(got) != len(want) {
		t.Fatalf("got %d segments, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if s.Language() != "fr" {
		t.Fatalf("language = %q", s.Language())
	}
	if s.Next() {
		t.Fatal("exhausted stream must not restart")
	}
	_ = s.Close()
	_ = s.Close()
	if closed != 1 {
		t.Fatalf("closer ran %d times, want 1", closed)
	}
}

func TestStreamLanguageAfterSegments(t *testing.T) {
	s := NewStream(strings.NewReader(`{"segments":[{"start":0,"end":1,"text":"hi"}],"language":"en"}`), nil)
	if !s.Next() {
		t.Fatalf("expected a segment, err=%v", s.Err())
	}
	if s.Language() != "" {
		t.Fatalf("language should not be known before the field is reached, got %q", s.Language())
	}
	if s.Next() {
		t.Fatal("expected end of stream")
	}
	if s.Language() != "en" {
		t.Fatalf("language = %q, want en", s.Language())
	}
}

func TestStreamEmptyAndNullLanguage(t *testing.T) {
	s := NewStream(strings.NewReader(`{"segments":[],"language":null}`), nil)
	if s.Next() {
		t.Fatal("expected no segments")
	}
	if s.Err() != nil || s.Language() != "" {
		t.Fatalf("err=%v language=%q", s.Err(), s.Language())
	}
}

func TestStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"truncated", `{"segments":[{"start":0,"end":1,"text":"a"}`},
		{"not an object", `[1,2]`},
		{"missing timestamps", `{"segments":[{"text":"no times"}]}`},
		{"segments not array", `{"segments":{}}`},
		{"empty input", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream(strings.NewReader(tt.doc), nil)
			for s.Next() {
			}
			if !errors.Is(s.Err(), services.ErrTranscription) {
				t.Fatalf("expected ErrTranscription, got %v", s.Err())
			}
			if s.Next() {
				t.Fatal("failed stream must stay exhausted")
			}
		})
	}
}

func TestStreamClosedBeforeDrain(t *testing.T) {
	s := NewStream(strings.NewReader(`{"segments":[{"start":0,"end":1,"text":"a"}]}`), nil)
	_ = s.Close()
	if s.Next() {
		t.Fatal("closed stream must not yield segments")
	}
}

func TestEncodeCollectRoundTrip(t *testing.T) {
	in := Transcript{Language: "en", Segments: []Segment{{0, 1.5, "Hello world."}}}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Collect(NewStream(strings.NewReader(string(data)), nil))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Language != in.Language || len(out.Segments) != 1 || out.Segments[0] != in.Segments[0] {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	empty, err := Encode(Transcript{})
	if err != nil {
		t.Fatalf("Encode empty: %v", err)
	}
	if string(empty) != `{"segments":[]}` {
		t.Fatalf("empty encoding = %s", empty)
	}
}

package transcribe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"vidsub/internal/services"
)

// Segment is one timed span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the engine's JSON document shape, reduced to what vidsub reads.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

type wireSegment struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

type streamState int

const (
	stateStart streamState = iota
	stateFields
	stateSegments
	stateDone
)

// Stream yields segments from a transcript document one at a time. It is
// consumed once: after Next returns false, or after Close, it stays exhausted.
type Stream struct {
	dec      *json.Decoder
	closer   func() error
	state    streamState
	current  Segment
	count    int
	err      error
	language string
	closed   bool
}

// NewStream decodes a transcript document from r. closer, when non-nil, runs
// once on Close.
func NewStream(r io.Reader, closer func() error) *Stream {
	return &Stream{dec: json.NewDecoder(r), closer: closer}
}

// Next advances to the next segment.
func (s *Stream) Next() bool {
	if s.closed || s.state == stateDone || s.err != nil {
		return false
	}
	for {
		switch s.state {
		case stateStart:
			if err := s.expectDelim('{'); err != nil {
				return s.fail(err)
			}
			s.state = stateFields
		case stateFields:
			if !s.dec.More() {
				if err := s.expectDelim('}'); err != nil {
					return s.fail(err)
				}
				s.state = stateDone
				return false
			}
			if err := s.readField(); err != nil {
				return s.fail(err)
			}
		case stateSegments:
			if !s.dec.More() {
				if err := s.expectDelim(']'); err != nil {
					return s.fail(err)
				}
				s.state = stateFields
				continue
			}
			var seg wireSegment
			if err := s.dec.Decode(&seg); err != nil {
				return s.fail(fmt.Errorf("decode segment %d: %w", s.count+1, err))
			}
			s.count++
			if seg.Start == nil || seg.End == nil {
				return s.fail(fmt.Errorf("segment %d is missing timestamps", s.count))
			}
			s.current = Segment{Start: *seg.Start, End: *seg.End, Text: seg.Text}
			return true
		default:
			return false
		}
	}
}

// Segment returns the segment produced by the last successful Next.
func (s *Stream) Segment() Segment {
	return s.current
}

// Err returns the first decoding error, if any.
func (s *Stream) Err() error {
	return s.err
}

// Language returns the language the engine reported, or the requested
// language when the engine did not report one. It may only be populated
// after the stream is exhausted.
func (s *Stream) Language() string {
	return s.language
}

// Close releases the underlying transcript and any temporary files.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

func (s *Stream) readField() error {
	tok, err := s.dec.Token()
	if err != nil {
		return err
	}
	key, ok := tok.(string)
	if !ok {
		return fmt.Errorf("unexpected token %v", tok)
	}
	switch key {
	case "segments":
		if err := s.expectDelim('['); err != nil {
			return fmt.Errorf("segments: %w", err)
		}
		s.state = stateSegments
	case "language":
		var lang *string
		if err := s.dec.Decode(&lang); err != nil {
			return fmt.Errorf("language: %w", err)
		}
		if lang != nil && *lang != "" {
			s.language = *lang
		}
	default:
		var skip json.RawMessage
		if err := s.dec.Decode(&skip); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (s *Stream) expectDelim(want json.Delim) error {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("unexpected end of transcript, want %q", want)
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("unexpected token %v, want %q", tok, want)
	}
	return nil
}

func (s *Stream) fail(err error) bool {
	s.err = services.Wrap(services.ErrTranscription, "transcribe", "decode transcript", "", err)
	s.state = stateDone
	return false
}

// Collect drains the stream into a Transcript. The stream is not closed.
func Collect(s *Stream) (Transcript, error) {
	var t Transcript
	for s.Next() {
		t.Segments = append(t.Segments, s.Segment())
	}
	t.Language = s.Language()
	return t, s.Err()
}

// Encode renders t in the engine's JSON document shape.
func Encode(t Transcript) ([]byte, error) {
	if t.Segments == nil {
		t.Segments = []Segment{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	return data, nil
}

package record

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// Scanner yields the JSON values found in a concatenated batch.
type Scanner struct {
	batch   string
	pos     int
	skipped int
	err     error
}

func NewScanner(batch string) *Scanner {
	return &Scanner{batch: batch}
}

// Next returns the next decodable JSON value, or false once the batch is exhausted.
// Undecodable input is skipped one character at a time.
func (s *Scanner) Next() (json.RawMessage, bool) {
	for s.pos < len(s.batch) {
		dec := json.NewDecoder(strings.NewReader(s.batch[s.pos:]))

		var raw json.RawMessage
		err := dec.Decode(&raw)
		if err == nil {
			s.pos += int(dec.InputOffset())
			return raw, true
		}
		if errors.Is(err, io.EOF) {
			// only whitespace left
			s.pos = len(s.batch)
			return nil, false
		}

		s.err = err
		_, size := utf8.DecodeRuneInString(s.batch[s.pos:])
		s.pos += size
		s.skipped += size
	}
	return nil, false
}

// Offset is the byte position just past the last value returned.
func (s *Scanner) Offset() int { return s.pos }

// Skipped is the number of bytes discarded while resynchronising.
func (s *Scanner) Skipped() int { return s.skipped }

// LastErr is the most recent decode error seen, if any.
func (s *Scanner) LastErr() error { return s.err }

// All drains the scanner.
func (s *Scanner) All() []json.RawMessage {
	var out []json.RawMessage
	for {
		raw, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, raw)
	}
}

package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotObject   = errors.New("record: value is not a JSON object")
	ErrMissingID   = errors.New("record: missing id")
	ErrMissingText = errors.New("record: missing text")
)

// Record is either a Primary or a Reshared record.
type Record interface {
	// ID and Text come from the authoritative record.
	ID() int64
	Text() string
	// CreatedAt is always the outermost record's timestamp.
	CreatedAt() string

	isRecord()
}

type Primary struct {
	RecordID  int64
	Body      string
	Timestamp string
}

func (p Primary) ID() int64         { return p.RecordID }
func (p Primary) Text() string      { return p.Body }
func (p Primary) CreatedAt() string { return p.Timestamp }
func (Primary) isRecord()           {}

// Reshared wraps the record it republishes. Content belongs to Inner.
type Reshared struct {
	Timestamp string
	Inner     Primary
}

func (r Reshared) ID() int64         { return r.Inner.RecordID }
func (r Reshared) Text() string      { return r.Inner.Body }
func (r Reshared) CreatedAt() string { return r.Timestamp }
func (Reshared) isRecord()           {}

type wireRecord struct {
	CreatedAt string      `json:"created_at"`
	ID        *int64      `json:"id"`
	IDStr     string      `json:"id_str"`
	FullText  *string     `json:"full_text"`
	Text      *string     `json:"text"`
	Reshared  *wireRecord `json:"retweeted_status"`
}

func (w *wireRecord) primary() (Primary, error) {
	p := Primary{Timestamp: w.CreatedAt}

	switch {
	case w.ID != nil:
		p.RecordID = *w.ID
	case w.IDStr != "":
		id, err := strconv.ParseInt(w.IDStr, 10, 64)
		if err != nil {
			return Primary{}, fmt.Errorf("%w: id_str %q: %v", ErrMissingID, w.IDStr, err)
		}
		p.RecordID = id
	default:
		return Primary{}, ErrMissingID
	}

	switch {
	case w.FullText != nil:
		p.Body = *w.FullText
	case w.Text != nil:
		p.Body = *w.Text
	default:
		return Primary{}, ErrMissingText
	}
	return p, nil
}

// Decode resolves a raw JSON object into its variant.
func Decode(raw json.RawMessage) (Record, error) {
	if !IsObject(raw) {
		return nil, ErrNotObject
	}

	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	if w.Reshared != nil {
		inner, err := w.Reshared.primary()
		if err != nil {
			return nil, fmt.Errorf("reshared record: %w", err)
		}
		return Reshared{Timestamp: w.CreatedAt, Inner: inner}, nil
	}

	p, err := w.primary()
	if err != nil {
		return nil, err
	}
	return p, nil
}

func IsObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

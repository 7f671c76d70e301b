package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Primary(t *testing.T) {
	raw := json.RawMessage(`{"created_at":"Wed Jun 05 22:26:29 +0000 2019","id":1136398915065057280,"full_text":"hello","text":"hel"}`)

	rec, err := Decode(raw)
	require.NoError(t, err)

	p, ok := rec.(Primary)
	require.True(t, ok, "expected Primary, got %T", rec)
	assert.Equal(t, int64(1136398915065057280), p.ID())
	assert.Equal(t, "hello", p.Text())
	assert.Equal(t, "Wed Jun 05 22:26:29 +0000 2019", p.CreatedAt())
}

func TestDecode_ResharedUsesInnerContentAndOuterTimestamp(t *testing.T) {
	raw := json.RawMessage(`{"created_at":"Wed Jun 05 22:26:29 +0000 2019","id":1,"full_text":"RT outer",
		"retweeted_status":{"created_at":"Wed Jun 05 21:48:06 +0000 2019","id":9,"full_text":"X"}}`)

	rec, err := Decode(raw)
	require.NoError(t, err)

	r, ok := rec.(Reshared)
	require.True(t, ok, "expected Reshared, got %T", rec)
	assert.Equal(t, int64(9), r.ID())
	assert.Equal(t, "X", r.Text())
	assert.Equal(t, "Wed Jun 05 22:26:29 +0000 2019", r.CreatedAt())
}

func TestDecode_Fallbacks(t *testing.T) {
	rec, err := Decode(json.RawMessage(`{"created_at":"x","id_str":"77","text":"short form"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(77), rec.ID())
	assert.Equal(t, "short form", rec.Text())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"number", `42`, ErrNotObject},
		{"array", `[{"id":1}]`, ErrNotObject},
		{"missing id", `{"full_text":"x"}`, ErrMissingID},
		{"bad id_str", `{"id_str":"abc","full_text":"x"}`, ErrMissingID},
		{"missing text", `{"id":1}`, ErrMissingText},
		{"reshared missing text", `{"id":1,"full_text":"x","retweeted_status":{"id":2}}`, ErrMissingText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_NullResharedIsPrimary(t *testing.T) {
	rec, err := Decode(json.RawMessage(`{"id":3,"full_text":"x","retweeted_status":null}`))
	require.NoError(t, err)
	assert.IsType(t, Primary{}, rec)
}

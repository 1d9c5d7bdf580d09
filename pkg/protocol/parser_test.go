package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleOf(v uint16) *Sample {
	s := Sample(v)
	return &s
}

func parseAll(p *Parser, in []byte) (results []ParseResult) {
	for _, b := range in {
		if pr := p.Parse(b); pr != (ParseResult{}) {
			results = append(results, pr)
		}
	}
	return
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name   string
		in     []byte
		expect []ParseResult
	}{
		{
			name:   "single sample",
			in:     []byte{0xA0, 0x12, 0x34, 0xC0},
			expect: []ParseResult{{Sample: sampleOf(0x1234)}},
		},
		{
			name: "back to back samples",
			in:   []byte{0xA0, 0x00, 0x01, 0xC0, 0xA0, 0xA0, 0xC0, 0xC0},
			expect: []ParseResult{
				{Sample: sampleOf(0x0001)},
				{Sample: sampleOf(0xA0C0)},
			},
		},
		{
			name:   "skip leading garbage",
			in:     []byte{0x34, 0xC0, 0xA0, 0xFF, 0xFF, 0xC0},
			expect: []ParseResult{{Sample: sampleOf(0xFFFF)}},
		},
		{
			name: "bad end byte then resync",
			in:   []byte{0xA0, 0x01, 0x02, 0x03, 0xA0, 0x04, 0x05, 0xC0},
			expect: []ParseResult{
				{Dropped: true},
				{Sample: sampleOf(0x0405)},
			},
		},
		{
			name: "start byte in end position reopens frame",
			in:   []byte{0xA0, 0x01, 0x02, 0xA0, 0x04, 0x05, 0xC0},
			expect: []ParseResult{
				{Dropped: true},
				{Sample: sampleOf(0x0405)},
			},
		},
		{
			name:   "identification",
			in:     []byte("Wave Kivy $$$"),
			expect: []ParseResult{{Reply: &Reply{Kind: ReplyIdentification, Text: "Wave Kivy $$$"}}},
		},
		{
			name:   "error reply",
			in:     []byte("Unknown command x\r\n"),
			expect: []ParseResult{{Reply: &Reply{Kind: ReplyError, Text: "Unknown command x", Byte: 'x'}}},
		},
		{
			name:   "error reply for start byte",
			in:     []byte("Unknown command \xa0\r\n"),
			expect: []ParseResult{{Reply: &Reply{Kind: ReplyError, Text: "Unknown command \xa0", Byte: 0xA0}}},
		},
		{
			name:   "error reply for carriage return",
			in:     []byte("Unknown command \r\r\n"),
			expect: []ParseResult{{Reply: &Reply{Kind: ReplyError, Text: "Unknown command \r", Byte: '\r'}}},
		},
		{
			name:   "other line",
			in:     []byte("hello\r\n"),
			expect: []ParseResult{{Reply: &Reply{Kind: ReplyText, Text: "hello"}}},
		},
		{
			name: "identification then samples",
			in:   append([]byte("Wave Kivy $$$"), 0xA0, 0x00, 0x10, 0xC0),
			expect: []ParseResult{
				{Reply: &Reply{Kind: ReplyIdentification, Text: "Wave Kivy $$$"}},
				{Sample: sampleOf(0x0010)},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			require.Equal(t, tc.expect, parseAll(&p, tc.in))
		})
	}
}

func TestParserReplyOverflow(t *testing.T) {
	var p Parser
	garbage := make([]byte, MaxReplySize)
	for i := range garbage {
		garbage[i] = 'a'
	}
	require.Empty(t, parseAll(&p, garbage))
	require.Equal(t, []ParseResult{{Reply: &Reply{Kind: ReplyIdentification, Text: "Wave Kivy $$$"}}},
		parseAll(&p, []byte("Wave Kivy $$$")))
}

func TestReplyErr(t *testing.T) {
	require.NoError(t, (&Reply{Kind: ReplyIdentification}).Err())
	err := (&Reply{Kind: ReplyError, Byte: 'q'}).Err()
	require.Equal(t, &CommandError{Byte: 'q'}, err)
	require.Equal(t, `unknown command 'q'`, err.Error())
}

func TestReplyKindString(t *testing.T) {
	require.Equal(t, "identification", ReplyIdentification.String())
	require.Equal(t, "error", ReplyError.String())
	require.Equal(t, "unknown", ReplyKind(9).String())
}

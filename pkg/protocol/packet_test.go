package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeSample(t *testing.T) {
	testCases := []struct {
		name   string
		raw    uint32
		expect []byte
	}{
		{"typical", 0x1234, []byte{0xA0, 0x12, 0x34, 0xC0}},
		{"zero", 0, []byte{0xA0, 0x00, 0x00, 0xC0}},
		{"full scale", 0xFFFF, []byte{0xA0, 0xFF, 0xFF, 0xC0}},
		{"truncated", 0xABCD1234, []byte{0xA0, 0x12, 0x34, 0xC0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, EncodeSample(tc.raw))
			var buf bytes.Buffer
			n, err := Sample(uint16(tc.raw)).WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(SamplePacketSize), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestEncodeReplies(t *testing.T) {
	require.Equal(t, []byte("Wave Kivy $$$"), EncodeConnection())
	require.Equal(t, []byte("Unknown command x\r\n"), EncodeError('x'))
	require.Equal(t, []byte("Unknown command \xa0\r\n"), EncodeError(0xA0))
}

func TestSampleVolts(t *testing.T) {
	require.Equal(t, 0.0, Sample(0).Volts())
	require.Equal(t, FullScaleVolts, Sample(0xFFFF).Volts())
	require.InDelta(t, 2.5, Sample(0x8000).Volts(), 0.001)
}

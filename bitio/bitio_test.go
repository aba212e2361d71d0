package bitio

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFourCC(t *testing.T) {
	f := NewFourCC("caff")
	require.Equal(t, "caff", f.String())

	zero := NewFourCC("nope5")
	require.Equal(t, FourCC{}, zero)
}

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 16383, 16384, 1 << 20, 1 << 40, 1<<63 - 1}

	for _, v := range cases {
		encoded := EncodeVarint(v)
		require.Len(t, encoded, VarintLen(v))

		decoded, err := DecodeVarint(bufio.NewReader(bytes.NewReader(encoded)))
		require.NoError(t, err)
		require.Equal(t, v, decoded)
	}
}

func TestEncodeVarintKnownBytes(t *testing.T) {
	require.Equal(t, []byte{0x00}, EncodeVarint(0))
	require.Equal(t, []byte{0x7f}, EncodeVarint(127))
	require.Equal(t, []byte{0x81, 0x00}, EncodeVarint(128))
}

func TestDecodeVarintTruncated(t *testing.T) {
	// A byte with the continuation bit set but nothing following.
	_, err := DecodeVarint(bufio.NewReader(bytes.NewReader([]byte{0x81})))
	require.Error(t, err)
}

func TestDecodeVarintOverflow(t *testing.T) {
	// 9 continuation bytes carry 63 payload bits; a 10th byte would shift them past 64 bits.
	overflow := bytes.Repeat([]byte{0xff}, 9)
	overflow = append(overflow, 0x7f)
	_, err := DecodeVarint(bufio.NewReader(bytes.NewReader(overflow)))
	require.ErrorIs(t, err, ErrBadVarint)
}

package ogg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndParseRoundTrip(t *testing.T) {
	channels := uint8(2)
	sampleRate := uint32(48000)
	frameSize := uint32(960)
	packetSizes := []uint32{3, 255, 10, 0, 510}

	audio := make([]byte, 0)
	var next byte
	for _, size := range packetSizes {
		for i := uint32(0); i < size; i++ {
			audio = append(audio, next)
			next++
		}
	}

	out := BuildFile(channels, sampleRate, frameSize, packetSizes, audio, WithSerial(42), WithVendor("testvendor"))
	require.NotEmpty(t, out)

	r := NewReader(bytes.NewReader(out))
	head, err := ReadHeaders(r)
	require.NoError(t, err)
	require.Equal(t, channels, head.Channels)
	require.Equal(t, sampleRate, head.SampleRate)
	require.Equal(t, uint16(frameSize), head.PreSkip)

	tagsPage, err := r.ParseNextPage()
	require.NoError(t, err)
	require.Len(t, tagsPage.Packets, 1)
	require.Equal(t, "OpusTags", string(tagsPage.Packets[0][:8]))

	var gotSizes []uint32
	var gotAudio []byte
	for {
		page, err := r.ParseNextPage()
		if err != nil {
			break
		}
		for _, p := range page.Packets {
			gotSizes = append(gotSizes, uint32(len(p)))
			gotAudio = append(gotAudio, p...)
		}
	}

	require.Equal(t, packetSizes, gotSizes)
	require.Equal(t, audio, gotAudio)
}

func TestParseNextPageShortHeader(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{'O', 'g', 'g'}))
	_, err := r.ParseNextPage()
	require.ErrorIs(t, err, ErrShortPageHeader)
}

func TestParseNextPageBadSignature(t *testing.T) {
	junk := bytes.Repeat([]byte{0xAA}, pageHeaderLen)
	r := NewReader(bytes.NewReader(junk))
	_, err := r.ParseNextPage()
	require.ErrorIs(t, err, ErrBadIDPageSignature)
}

func TestReadHeadersRejectsWrongPayloadLength(t *testing.T) {
	out := BuildFile(1, 48000, 960, nil, nil)
	// Corrupt the ID page's single lacing value so the payload length
	// decoded from the page no longer matches the 19-byte OpusHead size.
	out[27] = 18

	r := NewReader(bytes.NewReader(out))
	_, err := ReadHeaders(r)
	require.ErrorIs(t, err, ErrBadIDPageLength)
}

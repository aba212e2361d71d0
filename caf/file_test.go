package caf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jt274/ogg-caf-converter/bitio"
)

func TestBuildEncodeDecodeRoundTrip(t *testing.T) {
	audio := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	packetSizes := []uint32{3, 3, 4}

	f := Build(2, 48000, 960, audio, packetSizes)

	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)

	desc, ok := decoded.Find(ChunkAudioDescription).(*AudioFormat)
	require.True(t, ok)
	require.Equal(t, float64(48000), desc.SampleRate)
	require.Equal(t, fourCCOpus, desc.FormatID)
	require.Equal(t, uint32(960), desc.FramesPerPacket)
	require.Equal(t, uint32(2), desc.ChannelsPerPacket)

	chanLayout, ok := decoded.Find(ChunkChannelLayout).(*ChannelLayout)
	require.True(t, ok)
	require.Equal(t, uint32(channelLayoutTagStereo), chanLayout.ChannelLayoutTag)

	data, ok := decoded.Find(ChunkAudioData).(*AudioData)
	require.True(t, ok)
	require.Equal(t, audio, data.Bytes)

	pakt, ok := decoded.Find(ChunkPacketTable).(*PacketTable)
	require.True(t, ok)
	require.Equal(t, packetSizes, pakt.Sizes)
	require.Equal(t, int64(3), pakt.Header.NumberPackets)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	bad := []byte("nope\x00\x01\x00\x00")
	_, err := Decode(bytes.NewReader(bad))
	require.Error(t, err)
}

func TestFindMissingChunkReturnsNil(t *testing.T) {
	f := &File{}
	require.Nil(t, f.Find(bitio.NewFourCC("data")))
}

func TestChunkNotFoundErrorWraps(t *testing.T) {
	err := &ChunkNotFoundError{Kind: ChunkAudioData}
	require.ErrorIs(t, err, ErrChunkNotFound)
	require.Contains(t, err.Error(), "data")
}

func TestInformationRoundTrip(t *testing.T) {
	info := &Information{Entries: []InfoEntry{{Key: "encoder", Value: "Lavf59.27.100"}}}

	var buf bytes.Buffer
	require.NoError(t, info.encode(&buf))
	require.Equal(t, info.EncodedSize(), int64(buf.Len()))

	decoded, err := decodeInformation(&buf)
	require.NoError(t, err)
	require.Equal(t, info.Entries, decoded.Entries)
}

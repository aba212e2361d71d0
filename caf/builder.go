package caf

// infoVendorKey and infoVendorValue are the literal encoder tag this
// converter stamps into the `info` chunk.
const (
	infoVendorKey   = "encoder"
	infoVendorValue = "Lavf59.27.100"
)

// Build assembles the fixed five-chunk CAF layout for an OPUS payload: desc,
// chan, info, data, pakt, in that order.
func Build(channels uint8, sampleRate float64, frameSize uint32, audioData []byte, packetSizes []uint32) *File {
	packets := make([]uint32, len(packetSizes))
	copy(packets, packetSizes)

	return &File{
		Header: FileHeader{FileType: fourCCCaff, FileVersion: 1, FileFlags: 0},
		Chunks: []Chunk{
			{Body: &AudioFormat{
				SampleRate:        sampleRate,
				FormatID:          fourCCOpus,
				FormatFlags:       0,
				BytesPerPacket:    0,
				FramesPerPacket:   frameSize,
				ChannelsPerPacket: uint32(channels),
				BitsPerChannel:    0,
			}},
			{Body: &ChannelLayout{
				ChannelLayoutTag: ChannelLayoutTagFor(channels),
				ChannelBitmap:    0,
			}},
			{Body: &Information{
				Entries: []InfoEntry{{Key: infoVendorKey, Value: infoVendorValue}},
			}},
			{Body: &AudioData{
				EditCount: 0,
				Bytes:     audioData,
			}},
			{Body: &PacketTable{
				Header: PacketTableHeader{
					NumberPackets:     int64(len(packets)),
					NumberValidFrames: int64(frameSize) * int64(len(packets)),
					PrimingFrames:     0,
					RemainderFrames:   0,
				},
				Sizes: packets,
			}},
		},
	}
}

package ogg

// silkHybridMs10 and celtMs10 are, in tenths of a millisecond, the
// frame-size-per-config tables from RFC 6716's TOC byte layout: both SILK
// (config < 12) and Hybrid (12 <= config < 16) index {10, 20, 40, 60} ms by
// the low two config bits; CELT (config >= 16) indexes {2.5, 5, 10, 20} ms.
// Tenths of a millisecond keep the 2.5 ms case integral.
var silkHybridMs10 = [4]uint32{100, 200, 400, 600}
var celtMs10 = [4]uint32{25, 50, 100, 200}

// FrameSize derives the OPUS frame size, in samples at sampleRate, from a
// packet's TOC (table-of-contents) byte.
func FrameSize(toc byte, sampleRate uint32) uint32 {
	config := toc >> 3
	c := config & 0x03

	var ms10 uint32
	switch {
	case config < 12:
		ms10 = silkHybridMs10[c]
	case config < 16:
		ms10 = silkHybridMs10[c]
	default:
		ms10 = celtMs10[c]
	}

	return (ms10 * sampleRate) / 10000
}

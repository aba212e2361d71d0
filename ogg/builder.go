package ogg

import (
	"encoding/binary"
	"time"
)

const (
	opusHeadSignature = "OpusHead"
	opusTagsSignature = "OpusTags"
	defaultVendor     = "oggcaf"
)

// BuildOptions configures the page builder. The zero value derives the
// serial from wall-clock time and scales the granule position by the
// sample-rate ratio; tests should set Serial explicitly for deterministic
// byte comparison.
type BuildOptions struct {
	// Serial is the Ogg logical-bitstream serial number. If zero, one is
	// derived from the current wall-clock time in milliseconds, mod 2^32.
	Serial uint32
	// Vendor is the string written into the OpusTags vendor field. Tests
	// must not depend on its exact value; it defaults to "oggcaf".
	Vendor string
	// Repackage, when true, advances the granule position by frameSize
	// directly instead of scaling by 48000/sampleRate. Most real OPUS
	// streams run at 48 kHz, where the two are identical.
	Repackage bool
}

// Option mutates BuildOptions.
type Option func(*BuildOptions)

// WithSerial injects a deterministic Ogg serial number.
func WithSerial(serial uint32) Option {
	return func(o *BuildOptions) { o.Serial = serial }
}

// WithVendor overrides the OpusTags vendor string.
func WithVendor(vendor string) Option {
	return func(o *BuildOptions) { o.Vendor = vendor }
}

// WithRepackage toggles identity granule advancement (used when the source
// container already expresses time in frames rather than 48 kHz samples).
func WithRepackage(repackage bool) Option {
	return func(o *BuildOptions) { o.Repackage = repackage }
}

func resolveOptions(opts []Option) BuildOptions {
	o := BuildOptions{Vendor: defaultVendor}
	for _, apply := range opts {
		apply(&o)
	}
	if o.Serial == 0 {
		o.Serial = uint32(time.Now().UnixMilli())
	}
	return o
}

// BuildFile lays out a full Ogg-Opus logical stream: the ID page, the
// comment page, and one or more audio pages built by lacing packetSizes out
// of audioData.
func BuildFile(channels uint8, sampleRate, frameSize uint32, packetSizes []uint32, audioData []byte, opts ...Option) []byte {
	o := resolveOptions(opts)

	pages := newPageWriter(o.Serial)

	pages.writeIDPage(channels, sampleRate, frameSize)
	pages.writeTagsPage(o.Vendor)
	pages.writeAudioPages(packetSizes, audioData, frameSize, sampleRate, o.Repackage)

	return pages.Bytes()
}

// pageWriter accumulates laced segments into pages and serializes them with
// a freshly computed CRC, applying the Ogg lacing/flush rules as packets are
// appended.
type pageWriter struct {
	out       []byte
	serial    uint32
	pageIndex uint32

	segments [][]byte
	lacing   []byte
	bodyLen  int
}

func newPageWriter(serial uint32) *pageWriter {
	return &pageWriter{serial: serial}
}

func (p *pageWriter) Bytes() []byte { return p.out }

func (p *pageWriter) writeIDPage(channels uint8, sampleRate, frameSize uint32) {
	body := make([]byte, idPagePayloadLength)
	copy(body, opusHeadSignature)
	body[8] = 1 // version
	body[9] = channels
	binary.LittleEndian.PutUint16(body[10:12], uint16(frameSize))
	binary.LittleEndian.PutUint32(body[12:16], sampleRate)
	binary.LittleEndian.PutUint16(body[16:18], 0) // output gain
	body[18] = 0                                  // channel-mapping family

	p.flushPage(HeaderBeginOfStream, 0, [][]byte{body})
}

func (p *pageWriter) writeTagsPage(vendor string) {
	vendorBytes := []byte(vendor)
	body := make([]byte, 0, 16+len(vendorBytes))
	body = append(body, []byte(opusTagsSignature)...)
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(vendorBytes)))
	body = append(body, lenBuf...)
	body = append(body, vendorBytes...)
	binary.LittleEndian.PutUint32(lenBuf, 0) // comment count
	body = append(body, lenBuf...)

	p.flushPage(0, 0, [][]byte{body})
}

// writeAudioPages packets audioData according to packetSizes and writes them
// into one or more pages, lacing and flushing as segment/body limits are
// hit, and advancing the granule position per packet.
func (p *pageWriter) writeAudioPages(packetSizes []uint32, audioData []byte, frameSize, sampleRate uint32, repackage bool) {
	headerType := uint8(HeaderContinuation)
	var granule int64
	var lacing []byte
	var segments [][]byte
	bodyLen := 0

	flush := func(final bool) {
		ht := headerType
		if final {
			ht = HeaderEndOfStream
		}
		p.flushPage(ht, granule, segments)
		headerType = 0
		lacing = nil
		segments = nil
		bodyLen = 0
	}

	offset := 0
	for i, size := range packetSizes {
		packet := audioData[offset : offset+int(size)]
		offset += int(size)

		segLacing := laceSizes(size)

		if len(lacing)+len(segLacing) > maxSegmentsCount || bodyLen+int(size) > MaxPageBodyLen {
			flush(false)
		}

		lacing = append(lacing, segLacing...)
		segments = append(segments, packet)
		bodyLen += int(size)

		if repackage {
			granule += int64(frameSize)
		} else {
			granule += int64(frameSize) * int64(48000) / int64(sampleRate)
		}

		if i == len(packetSizes)-1 {
			flush(true)
		}
	}

	// No packets at all: still emit a terminal page so the stream has a
	// well-formed end-of-stream marker. A page's segmentsCount must be in
	// [1,255], so this carries one explicit zero-length-packet segment
	// rather than an empty lacing table.
	if len(packetSizes) == 0 {
		p.flushPage(HeaderEndOfStream, 0, [][]byte{{}})
	}
}

// laceSizes returns the lacing values an S-byte packet expands to: full
// 255-byte segments followed by a terminator in [0,254], with an explicit
// zero terminator when S is a positive multiple of 255.
func laceSizes(size uint32) []byte {
	if size == 0 {
		return []byte{0}
	}
	var lacing []byte
	for size >= 255 {
		lacing = append(lacing, 255)
		size -= 255
	}
	lacing = append(lacing, byte(size))
	return lacing
}

func (p *pageWriter) flushPage(headerType uint8, granule int64, segments [][]byte) {
	lacing := make([]byte, 0, len(segments))
	bodyLen := 0
	for _, seg := range segments {
		lacing = append(lacing, laceSizes(uint32(len(seg)))...)
		bodyLen += len(seg)
	}

	header := make([]byte, pageHeaderLen+len(lacing))
	copy(header[0:4], pageSignature)
	header[4] = 0 // version
	header[5] = headerType
	binary.LittleEndian.PutUint64(header[6:14], uint64(granule))
	binary.LittleEndian.PutUint32(header[14:18], p.serial)
	binary.LittleEndian.PutUint32(header[18:22], p.pageIndex)
	// header[22:26] checksum left zero for the CRC pass
	header[26] = byte(len(lacing))
	copy(header[27:], lacing)

	page := make([]byte, 0, len(header)+bodyLen)
	page = append(page, header...)
	for _, seg := range segments {
		page = append(page, seg...)
	}

	crc := crcChecksum(page)
	binary.LittleEndian.PutUint32(page[22:26], crc)

	p.out = append(p.out, page...)
	p.pageIndex++
}

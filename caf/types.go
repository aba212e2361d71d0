// Package caf implements the Apple Core Audio Format chunk model: parsing,
// a tagged chunk-body variant with one concrete type per chunk kind (so
// dispatch is exhaustive instead of a runtime type assertion against an
// `any` field), and the fixed five-chunk layout this converter emits for an
// OPUS payload.
package caf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jt274/ogg-caf-converter/bitio"
)

// Chunk type tags (FourCC), RFC... err, Apple TN2282 / CAF spec 1.0 §2.
var (
	ChunkAudioDescription = bitio.NewFourCC("desc")
	ChunkChannelLayout    = bitio.NewFourCC("chan")
	ChunkInformation      = bitio.NewFourCC("info")
	ChunkAudioData        = bitio.NewFourCC("data")
	ChunkPacketTable      = bitio.NewFourCC("pakt")
	ChunkMidi             = bitio.NewFourCC("midi")

	fourCCCaff = bitio.NewFourCC("caff")
	fourCCOpus = bitio.NewFourCC("opus")
)

const (
	// Channel layout tags, Apple CoreAudioTypes.h. 100<<16|1 and 101<<16|2.
	channelLayoutTagMono   = 100<<16 | 1
	channelLayoutTagStereo = 101<<16 | 2
)

// ChannelLayoutTagFor returns the CAF channel layout tag for a given channel
// count: stereo for 2 channels, mono otherwise.
func ChannelLayoutTagFor(channels uint8) uint32 {
	if channels == 2 {
		return channelLayoutTagStereo
	}
	return channelLayoutTagMono
}

// Body is the tagged-variant interface every chunk payload implements: one
// concrete type per chunk kind, so dispatch is exhaustive and total instead
// of a runtime type assertion against an `any` field.
type Body interface {
	// ChunkType is the chunk's FourCC tag.
	ChunkType() bitio.FourCC
	// EncodedSize is the payload's size in bytes, excluding the 12-byte
	// chunk header.
	EncodedSize() int64
	encode(w io.Writer) error
}

// Chunk wraps a decoded Body. The size declared in the chunk header on read
// is not kept; Encode always writes the body's EncodedSize.
type Chunk struct {
	Body Body
}

// Encode writes the chunk header followed by its body.
func (c Chunk) Encode(w io.Writer) error {
	header := struct {
		Type bitio.FourCC
		Size int64
	}{c.Body.ChunkType(), c.Body.EncodedSize()}

	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return fmt.Errorf("caf: write chunk header: %w", err)
	}
	return c.Body.encode(w)
}

// AudioFormat is the `desc` chunk body: the ASBD-like description CAF
// carries for every stream.
type AudioFormat struct {
	SampleRate        float64
	FormatID          bitio.FourCC
	FormatFlags       uint32
	BytesPerPacket    uint32
	FramesPerPacket   uint32
	ChannelsPerPacket uint32
	BitsPerChannel    uint32
}

func (a *AudioFormat) ChunkType() bitio.FourCC { return ChunkAudioDescription }
func (a *AudioFormat) EncodedSize() int64      { return 32 }

func (a *AudioFormat) encode(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, a)
}

func decodeAudioFormat(r io.Reader) (*AudioFormat, error) {
	var a AudioFormat
	if err := binary.Read(r, binary.BigEndian, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ChannelDescription is one entry of a ChannelLayout's explicit descriptions
// (unused by this converter's output, but decoded for fidelity on read).
type ChannelDescription struct {
	ChannelLabel uint32
	ChannelFlags uint32
	Coordinates  [3]float32
}

// ChannelLayout is the `chan` chunk body.
type ChannelLayout struct {
	ChannelLayoutTag uint32
	ChannelBitmap    uint32
	Descriptions     []ChannelDescription
}

func (c *ChannelLayout) ChunkType() bitio.FourCC { return ChunkChannelLayout }
func (c *ChannelLayout) EncodedSize() int64 {
	return 12 + int64(len(c.Descriptions))*20
}

func (c *ChannelLayout) encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, c.ChannelLayoutTag); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, c.ChannelBitmap); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(c.Descriptions))); err != nil {
		return err
	}
	for i := range c.Descriptions {
		if err := binary.Write(w, binary.BigEndian, &c.Descriptions[i]); err != nil {
			return err
		}
	}
	return nil
}

func decodeChannelLayout(r io.Reader) (*ChannelLayout, error) {
	var c ChannelLayout
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &c.ChannelLayoutTag); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &c.ChannelBitmap); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var d ChannelDescription
		if err := binary.Read(r, binary.BigEndian, &d); err != nil {
			return nil, err
		}
		c.Descriptions = append(c.Descriptions, d)
	}
	return &c, nil
}

// InfoEntry is one NUL-terminated key/value pair of the `info` chunk.
type InfoEntry struct {
	Key   string
	Value string
}

// Information is the `info` chunk body.
type Information struct {
	Entries []InfoEntry
}

func (i *Information) ChunkType() bitio.FourCC { return ChunkInformation }
func (i *Information) EncodedSize() int64 {
	size := int64(4)
	for _, e := range i.Entries {
		size += int64(len(e.Key)) + 1 + int64(len(e.Value)) + 1
	}
	return size
}

// Entries' Key/Value hold the string content without the trailing NUL;
// encode/decode add and strip it.

func (i *Information) encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(i.Entries))); err != nil {
		return err
	}
	for _, e := range i.Entries {
		if err := writeCString(w, e.Key); err != nil {
			return err
		}
		if err := writeCString(w, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func decodeInformation(r io.Reader) (*Information, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	info := &Information{}
	for i := uint32(0); i < count; i++ {
		key, err := readCString(r)
		if err != nil {
			return nil, err
		}
		value, err := readCString(r)
		if err != nil {
			return nil, err
		}
		// A malformed key (not valid as a FourCC-style short tag, or
		// otherwise odd) is tolerated: the chunk is informational only and
		// must never abort the conversion.
		info.Entries = append(info.Entries, InfoEntry{Key: key, Value: value})
	}
	return info, nil
}

func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

func readCString(r io.Reader) (string, error) {
	var buf []byte
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
}

// AudioData is the `data` chunk body: an edit count (always 0 for this
// converter) followed by the raw concatenated OPUS packet bytes.
type AudioData struct {
	EditCount uint32
	Bytes     []byte
}

func (d *AudioData) ChunkType() bitio.FourCC { return ChunkAudioData }
func (d *AudioData) EncodedSize() int64      { return int64(len(d.Bytes)) + 4 }

func (d *AudioData) encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, d.EditCount); err != nil {
		return err
	}
	_, err := w.Write(d.Bytes)
	return err
}

func decodeAudioData(r io.Reader, chunkSize int64) (*AudioData, error) {
	var d AudioData
	if err := binary.Read(r, binary.BigEndian, &d.EditCount); err != nil {
		return nil, err
	}
	if chunkSize < 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		d.Bytes = data
		return &d, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, chunkSize-4))
	if err != nil {
		return nil, err
	}
	d.Bytes = data
	return &d, nil
}

// PacketTableHeader is the fixed 24-byte header preceding a `pakt` chunk's
// varint stream.
type PacketTableHeader struct {
	NumberPackets     int64
	NumberValidFrames int64
	PrimingFrames     int32
	RemainderFrames   int32
}

// PacketTable is the `pakt` chunk body. Sizes holds the decoded per-packet
// byte lengths rather than the raw varint bytes, so callers never need to
// re-run the varint decoder themselves.
type PacketTable struct {
	Header PacketTableHeader
	Sizes  []uint32
}

func (p *PacketTable) ChunkType() bitio.FourCC { return ChunkPacketTable }
func (p *PacketTable) EncodedSize() int64 {
	size := int64(24)
	for _, s := range p.Sizes {
		size += int64(bitio.VarintLen(uint64(s)))
	}
	return size
}

func (p *PacketTable) encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, p.Header); err != nil {
		return err
	}
	for _, s := range p.Sizes {
		if _, err := w.Write(bitio.EncodeVarint(uint64(s))); err != nil {
			return err
		}
	}
	return nil
}

func decodePacketTable(r io.Reader) (*PacketTable, error) {
	var pt PacketTable
	if err := binary.Read(r, binary.BigEndian, &pt.Header); err != nil {
		return nil, err
	}
	br, ok := r.(io.ByteReader)
	if !ok {
		return nil, fmt.Errorf("caf: packet table decode requires a byte reader")
	}
	for i := int64(0); i < pt.Header.NumberPackets; i++ {
		v, err := bitio.DecodeVarint(br)
		if err != nil {
			return nil, err
		}
		pt.Sizes = append(pt.Sizes, uint32(v))
	}
	return &pt, nil
}

// Midi is the `midi` chunk body: an opaque SMF byte blob, passed through
// unmodified.
type Midi struct {
	Bytes []byte
}

func (m *Midi) ChunkType() bitio.FourCC { return ChunkMidi }
func (m *Midi) EncodedSize() int64      { return int64(len(m.Bytes)) }
func (m *Midi) encode(w io.Writer) error {
	_, err := w.Write(m.Bytes)
	return err
}

// Unknown preserves any chunk type this reader does not model, so a file
// can be round-tripped even when it carries vendor extension chunks.
type Unknown struct {
	Type  bitio.FourCC
	Bytes []byte
}

func (u *Unknown) ChunkType() bitio.FourCC { return u.Type }
func (u *Unknown) EncodedSize() int64      { return int64(len(u.Bytes)) }
func (u *Unknown) encode(w io.Writer) error {
	_, err := w.Write(u.Bytes)
	return err
}

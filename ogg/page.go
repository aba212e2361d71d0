package ogg

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "ogg")

// Header bit flags, RFC 3533 §6.
const (
	HeaderContinuation  = 0x01
	HeaderBeginOfStream = 0x02
	HeaderEndOfStream   = 0x04
)

const (
	pageHeaderLen    = 27
	pageSignature    = "OggS"
	maxSegmentsCount = 255
	maxSegmentValue  = 255
	// MaxPageBodyLen is the largest lace-able body: 255 segments of 255
	// bytes each.
	MaxPageBodyLen = maxSegmentsCount * maxSegmentValue
)

// Sentinel errors surfaced by the parser, matching the stable kind names
// from the error model (see the convert package for the wrapping ErrorKind).
var (
	ErrShortPageHeader           = errors.New("ogg: short page header")
	ErrBadIDPageSignature        = errors.New("ogg: bad id page signature")
	ErrBadIDPageType             = errors.New("ogg: bad id page type")
	ErrBadIDPageLength           = errors.New("ogg: bad id page length")
	ErrBadIDPagePayloadSignature = errors.New("ogg: bad id page payload signature")
)

// PageHeader is the 27-byte fixed header plus its segment table.
type PageHeader struct {
	Version         uint8
	HeaderType      uint8
	GranulePosition int64
	Serial          uint32
	PageIndex       uint32
	Checksum        uint32
	SegmentTable    []byte
}

// Page is a parsed Ogg page: its header plus the logical packets completed
// within it. A packet that does not terminate within this page (its final
// lacing value is 255) is held back by the Reader and prefixed onto the
// first packet of the following page.
type Page struct {
	Header  PageHeader
	Packets [][]byte
}

// Reader incrementally parses Ogg pages from a stream, reassembling
// segments into packets and carrying partial packets across page
// boundaries.
type Reader struct {
	r       io.Reader
	pending []byte
}

// NewReader wraps r for page-at-a-time parsing.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ParseNextPage reads and returns the next Ogg page. It returns
// ErrShortPageHeader if fewer than 27 bytes remain for the header; io.EOF if
// the stream ended cleanly before any header bytes were read.
func (o *Reader) ParseNextPage() (*Page, error) {
	head := make([]byte, pageHeaderLen)
	n, err := io.ReadFull(o.r, head)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || (n > 0 && errors.Is(err, io.EOF)) {
			return nil, ErrShortPageHeader
		}
		return nil, err
	}

	if string(head[0:4]) != pageSignature {
		return nil, ErrBadIDPageSignature
	}

	hdr := PageHeader{
		Version:         head[4],
		HeaderType:      head[5],
		GranulePosition: int64(binary.LittleEndian.Uint64(head[6:14])),
		Serial:          binary.LittleEndian.Uint32(head[14:18]),
		PageIndex:       binary.LittleEndian.Uint32(head[18:22]),
		Checksum:        binary.LittleEndian.Uint32(head[22:26]),
	}
	segmentsCount := head[26]

	laceTable := make([]byte, segmentsCount)
	if _, err := io.ReadFull(o.r, laceTable); err != nil {
		return nil, err
	}
	hdr.SegmentTable = laceTable

	packets, pending, err := reassemblePackets(o.r, laceTable, o.pending)
	if err != nil {
		return nil, err
	}
	o.pending = pending

	log.WithFields(logrus.Fields{
		"index":    hdr.PageIndex,
		"segments": len(laceTable),
		"packets":  len(packets),
	}).Debug("parsed ogg page")

	return &Page{Header: hdr, Packets: packets}, nil
}

// reassemblePackets reads segment bodies from r according to laceTable and
// folds them into complete packets, per the lacing rule in RFC 3533 §6:
// consecutive 255-byte segments continue a packet; the first segment under
// 255 terminates it. carry is a partial packet left over from a previous
// page (its last lacing value there was 255); it is returned again if this
// page also ends mid-packet.
func reassemblePackets(r io.Reader, laceTable []byte, carry []byte) ([][]byte, []byte, error) {
	var packets [][]byte
	current := carry

	for _, lace := range laceTable {
		segment := make([]byte, lace)
		if lace > 0 {
			if _, err := io.ReadFull(r, segment); err != nil {
				return nil, nil, err
			}
		}
		current = append(current, segment...)
		if lace < 255 {
			packets = append(packets, current)
			current = nil
		}
	}

	// current != nil here means the page ended on a 255-byte segment: the
	// packet is incomplete and carries into the next page.
	return packets, current, nil
}

// OpusHead is the decoded RFC 7845 §5.1 identification header.
type OpusHead struct {
	Version        uint8
	Channels       uint8
	PreSkip        uint16
	SampleRate     uint32
	OutputGain     uint16
	ChannelMapping uint8
}

const (
	idPageSignature     = "OpusHead"
	idPagePayloadLength = 19
)

// ReadHeaders consumes the first page of the stream (the ID page) and
// decodes its OpusHead payload. It does not consume the comment (OpusTags)
// page; callers continue with ParseNextPage.
func ReadHeaders(r *Reader) (*OpusHead, error) {
	page, err := r.ParseNextPage()
	if err != nil {
		return nil, err
	}

	if page.Header.HeaderType != HeaderBeginOfStream {
		return nil, ErrBadIDPageType
	}
	if len(page.Packets) == 0 || len(page.Packets[0]) != idPagePayloadLength {
		return nil, ErrBadIDPageLength
	}
	segment := page.Packets[0]
	if string(segment[:8]) != idPageSignature {
		return nil, ErrBadIDPagePayloadSignature
	}

	return &OpusHead{
		Version:        segment[8],
		Channels:       segment[9],
		PreSkip:        binary.LittleEndian.Uint16(segment[10:12]),
		SampleRate:     binary.LittleEndian.Uint32(segment[12:16]),
		OutputGain:     binary.LittleEndian.Uint16(segment[16:18]),
		ChannelMapping: segment[18],
	}, nil
}

package caf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/jt274/ogg-caf-converter/bitio"
)

var log = logrus.WithField("component", "caf")

// ErrChunkNotFound is the sentinel ChunkNotFoundError wraps; callers match
// either with errors.Is / errors.As.
var ErrChunkNotFound = errors.New("caf: required chunk not found")

// ChunkNotFoundError names the specific chunk kind that was missing.
type ChunkNotFoundError struct {
	Kind bitio.FourCC
}

func (e *ChunkNotFoundError) Error() string {
	return fmt.Sprintf("caf: required chunk %q not found", e.Kind.String())
}

func (e *ChunkNotFoundError) Unwrap() error { return ErrChunkNotFound }

// FileHeader is the 8-byte CAF file header.
type FileHeader struct {
	FileType    bitio.FourCC
	FileVersion uint16
	FileFlags   uint16
}

// File is a fully decoded (or to-be-encoded) CAF container: its header plus
// an ordered list of chunks.
type File struct {
	Header FileHeader
	Chunks []Chunk
}

// Decode reads a complete CAF file from r. The file header's version/flags
// are logged but not enforced: an unexpected value is noisy, not fatal.
func Decode(r io.Reader) (*File, error) {
	br := bufio.NewReaderSize(r, 32*1024)

	var raw struct {
		Type    bitio.FourCC
		Version uint16
		Flags   uint16
	}
	if err := binary.Read(br, binary.BigEndian, &raw); err != nil {
		return nil, fmt.Errorf("caf: read file header: %w", err)
	}
	if raw.Type != fourCCCaff {
		return nil, fmt.Errorf("caf: invalid file header signature %q", raw.Type.String())
	}
	if raw.Version != 1 || raw.Flags != 0 {
		log.WithFields(logrus.Fields{"version": raw.Version, "flags": raw.Flags}).
			Warn("unexpected caf file header version/flags, proceeding anyway")
	}

	f := &File{Header: FileHeader{FileType: raw.Type, FileVersion: raw.Version, FileFlags: raw.Flags}}

	for {
		chunk, err := decodeChunk(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		f.Chunks = append(f.Chunks, chunk)
	}

	return f, nil
}

// Encode writes the file header followed by every chunk in order.
func (f *File) Encode(w io.Writer) error {
	header := struct {
		Type    bitio.FourCC
		Version uint16
		Flags   uint16
	}{f.Header.FileType, f.Header.FileVersion, f.Header.FileFlags}

	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return fmt.Errorf("caf: write file header: %w", err)
	}
	for _, c := range f.Chunks {
		if err := c.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first chunk body of the given type, or nil.
func (f *File) Find(kind bitio.FourCC) Body {
	for _, c := range f.Chunks {
		if c.Body.ChunkType() == kind {
			return c.Body
		}
	}
	return nil
}

func decodeChunk(r *bufio.Reader) (Chunk, error) {
	var header struct {
		Type bitio.FourCC
		Size int64
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return Chunk{}, err
	}

	switch header.Type {
	case ChunkAudioDescription:
		body, err := decodeAudioFormat(r)
		if err != nil {
			return Chunk{}, fmt.Errorf("caf: decode desc chunk: %w", err)
		}
		return Chunk{Body: body}, nil

	case ChunkChannelLayout:
		body, err := decodeChannelLayout(r)
		if err != nil {
			return Chunk{}, fmt.Errorf("caf: decode chan chunk: %w", err)
		}
		return Chunk{Body: body}, nil

	case ChunkInformation:
		body, err := decodeInformation(r)
		if err != nil {
			return Chunk{}, fmt.Errorf("caf: decode info chunk: %w", err)
		}
		return Chunk{Body: body}, nil

	case ChunkAudioData:
		body, err := decodeAudioData(r, header.Size)
		if err != nil {
			return Chunk{}, fmt.Errorf("caf: decode data chunk: %w", err)
		}
		return Chunk{Body: body}, nil

	case ChunkPacketTable:
		body, err := decodePacketTable(r)
		if err != nil {
			return Chunk{}, fmt.Errorf("caf: decode pakt chunk: %w", err)
		}
		return Chunk{Body: body}, nil

	case ChunkMidi:
		buf := make([]byte, header.Size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Chunk{}, fmt.Errorf("caf: decode midi chunk: %w", err)
		}
		return Chunk{Body: &Midi{Bytes: buf}}, nil

	default:
		log.WithField("type", header.Type.String()).Debug("skipping unknown caf chunk")
		buf := make([]byte, header.Size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Chunk{}, fmt.Errorf("caf: skip unknown chunk %q: %w", header.Type.String(), err)
		}
		return Chunk{Body: &Unknown{Type: header.Type, Bytes: buf}}, nil
	}
}

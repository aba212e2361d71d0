// Package convert wires the Ogg and CAF packages together into the two
// public conversions (C9) and classifies every failure into the closed
// error-kind enumeration (C10).
package convert

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jt274/ogg-caf-converter/bitio"
	"github.com/jt274/ogg-caf-converter/caf"
	"github.com/jt274/ogg-caf-converter/ogg"
)

// ErrorKind is a stable, closed set of failure categories so callers can
// branch on kind instead of matching error strings.
type ErrorKind string

const (
	KindShortPageHeader           ErrorKind = "ShortPageHeader"
	KindBadIDPageSignature        ErrorKind = "BadIDPageSignature"
	KindBadIDPageType             ErrorKind = "BadIDPageType"
	KindBadIDPageLength           ErrorKind = "BadIDPageLength"
	KindBadIDPagePayloadSignature ErrorKind = "BadIDPagePayloadSignature"
	KindChunkNotFound             ErrorKind = "ChunkNotFound"
	KindBadVarint                 ErrorKind = "BadVarint"
	KindIoFailure                 ErrorKind = "IoFailure"
)

// Error is the single failure type every exported conversion returns,
// wrapping the underlying cause with a stable Kind.
type Error struct {
	Kind  ErrorKind
	Chunk string // populated for KindChunkNotFound
	Err   error
}

func (e *Error) Error() string {
	if e.Chunk != "" {
		return fmt.Sprintf("convert: %s(%s): %v", e.Kind, e.Chunk, e.Err)
	}
	return fmt.Sprintf("convert: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies err into a *Error. A nil err returns nil.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	var chunkErr *caf.ChunkNotFoundError
	if errors.As(err, &chunkErr) {
		return &Error{Kind: KindChunkNotFound, Chunk: chunkErr.Kind.String(), Err: err}
	}

	switch {
	case errors.Is(err, ogg.ErrShortPageHeader):
		return &Error{Kind: KindShortPageHeader, Err: err}
	case errors.Is(err, ogg.ErrBadIDPageSignature):
		return &Error{Kind: KindBadIDPageSignature, Err: err}
	case errors.Is(err, ogg.ErrBadIDPageType):
		return &Error{Kind: KindBadIDPageType, Err: err}
	case errors.Is(err, ogg.ErrBadIDPageLength):
		return &Error{Kind: KindBadIDPageLength, Err: err}
	case errors.Is(err, ogg.ErrBadIDPagePayloadSignature):
		return &Error{Kind: KindBadIDPagePayloadSignature, Err: err}
	case errors.Is(err, bitio.ErrBadVarint):
		return &Error{Kind: KindBadVarint, Err: err}
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrClosed):
		return &Error{Kind: KindIoFailure, Err: err}
	default:
		return &Error{Kind: KindIoFailure, Err: err}
	}
}

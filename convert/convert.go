package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jt274/ogg-caf-converter/caf"
	"github.com/jt274/ogg-caf-converter/ogg"
)

var log = logrus.WithField("component", "convert")

// tagsSignature marks the second page of an Ogg-Opus stream, which carries
// vendor/comment metadata and has no audio payload.
const tagsSignature = "OpusTags"

// ConvertOggToCaf decodes an Ogg-Opus stream and re-encodes its audio as a
// CAF file. The frame size is derived from the TOC byte of the first audio
// packet; every later packet is assumed to share it, per the OPUS practice
// of holding frame size constant for the life of a stream.
func ConvertOggToCaf(input []byte) ([]byte, error) {
	r := ogg.NewReader(bytes.NewReader(input))

	head, err := ogg.ReadHeaders(r)
	if err != nil {
		return nil, wrap(fmt.Errorf("read ogg headers: %w", err))
	}

	var (
		audioData   []byte
		packetSizes []uint32
		frameSize   uint32
	)

	for {
		page, err := r.ParseNextPage()
		if err != nil {
			if isCleanEOF(err) {
				break
			}
			return nil, wrap(fmt.Errorf("parse ogg page: %w", err))
		}

		for _, packet := range page.Packets {
			if len(packet) >= 8 && string(packet[:8]) == tagsSignature {
				continue
			}
			if len(packet) == 0 {
				continue
			}
			if frameSize == 0 {
				frameSize = ogg.FrameSize(packet[0], head.SampleRate)
			}
			audioData = append(audioData, packet...)
			packetSizes = append(packetSizes, uint32(len(packet)))
		}
	}

	if frameSize == 0 {
		frameSize = 960 // a stream with no audio packets still needs a frame size; 20ms at 48kHz.
	}

	log.WithFields(logrus.Fields{
		"channels":   head.Channels,
		"sampleRate": head.SampleRate,
		"frameSize":  frameSize,
		"packets":    len(packetSizes),
	}).Debug("decoded ogg stream")

	file := caf.Build(head.Channels, float64(head.SampleRate), frameSize, audioData, packetSizes)

	var buf bytes.Buffer
	if err := file.Encode(&buf); err != nil {
		return nil, wrap(fmt.Errorf("encode caf file: %w", err))
	}
	return buf.Bytes(), nil
}

// ConvertCafToOgg decodes a CAF file produced for an OPUS payload and
// re-encodes its audio as an Ogg-Opus stream. opts forward to ogg.BuildFile,
// letting callers pin a deterministic serial number for reproducible output.
func ConvertCafToOgg(input []byte, opts ...ogg.Option) ([]byte, error) {
	file, err := caf.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, wrap(fmt.Errorf("decode caf file: %w", err))
	}

	descBody := file.Find(caf.ChunkAudioDescription)
	if descBody == nil {
		return nil, wrap(&caf.ChunkNotFoundError{Kind: caf.ChunkAudioDescription})
	}
	desc, ok := descBody.(*caf.AudioFormat)
	if !ok {
		return nil, wrap(fmt.Errorf("convert: desc chunk has unexpected type %T", descBody))
	}

	dataBody := file.Find(caf.ChunkAudioData)
	if dataBody == nil {
		return nil, wrap(&caf.ChunkNotFoundError{Kind: caf.ChunkAudioData})
	}
	data, ok := dataBody.(*caf.AudioData)
	if !ok {
		return nil, wrap(fmt.Errorf("convert: data chunk has unexpected type %T", dataBody))
	}

	paktBody := file.Find(caf.ChunkPacketTable)
	if paktBody == nil {
		return nil, wrap(&caf.ChunkNotFoundError{Kind: caf.ChunkPacketTable})
	}
	pakt, ok := paktBody.(*caf.PacketTable)
	if !ok {
		return nil, wrap(fmt.Errorf("convert: pakt chunk has unexpected type %T", paktBody))
	}

	channels := uint8(desc.ChannelsPerPacket)
	sampleRate := uint32(desc.SampleRate)

	log.WithFields(logrus.Fields{
		"channels":   channels,
		"sampleRate": sampleRate,
		"frameSize":  desc.FramesPerPacket,
		"packets":    len(pakt.Sizes),
	}).Debug("decoded caf file")

	out := ogg.BuildFile(channels, sampleRate, desc.FramesPerPacket, pakt.Sizes, data.Bytes, opts...)
	return out, nil
}

// ConvertOggToCafFile reads inputPath, converts it to CAF, and writes
// outputPath. When deleteInput is true the source file is removed only
// after the output has been written successfully.
func ConvertOggToCafFile(inputPath, outputPath string, deleteInput bool) error {
	return convertFile(inputPath, outputPath, deleteInput, ConvertOggToCaf)
}

// ConvertCafToOggFile reads inputPath, converts it to Ogg-Opus, and writes
// outputPath. When deleteInput is true the source file is removed only
// after the output has been written successfully.
func ConvertCafToOggFile(inputPath, outputPath string, deleteInput bool, opts ...ogg.Option) error {
	return convertFile(inputPath, outputPath, deleteInput, func(in []byte) ([]byte, error) {
		return ConvertCafToOgg(in, opts...)
	})
}

func convertFile(inputPath, outputPath string, deleteInput bool, fn func([]byte) ([]byte, error)) error {
	input, err := os.ReadFile(inputPath)
	if err != nil {
		return wrap(fmt.Errorf("read input: %w", err))
	}

	output, err := fn(input)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return wrap(fmt.Errorf("write output: %w", err))
	}

	if deleteInput {
		if err := os.Remove(inputPath); err != nil {
			log.WithError(err).Warn("converted output written but failed to delete input")
			return wrap(fmt.Errorf("delete input: %w", err))
		}
	}

	return nil
}

// isCleanEOF reports whether err signals a normal end of the page stream:
// either a plain io.EOF or a short trailing header, which real Ogg files
// sometimes leave as padding at the very end of the stream.
func isCleanEOF(err error) bool {
	return err == io.EOF || err == ogg.ErrShortPageHeader
}

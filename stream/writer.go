package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Neumenon/proton/proton"
	"github.com/Neumenon/proton/wire"
)

// Writer writes PS1 frames to an io.Writer.
//
// Frame layout:
//
//	magic(1) flags(1) compression(1) varint(rawLen) varint(storedLen)
//	payload[storedLen] [crc32(4, little-endian)]
//
// The CRC, when present, covers the stored (possibly compressed)
// payload bytes.
type Writer struct {
	w           io.Writer
	compression Compression
	withCRC     bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression selects the payload compression algorithm.
// Payloads that do not shrink are written uncompressed regardless.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) {
		w.compression = c
	}
}

// WithCRC enables a CRC-32 trailer on each frame.
func WithCRC() WriterOption {
	return func(w *Writer) {
		w.withCRC = true
	}
}

// NewWriter creates a PS1 frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// WriteFrame writes one frame carrying payload.
func (w *Writer) WriteFrame(payload []byte) error {
	compression := w.compression
	stored := payload
	if compression != CompressionNone {
		out, err := compress(payload, compression)
		switch {
		case errors.Is(err, errIncompressible):
			compression = CompressionNone
		case err != nil:
			return err
		default:
			stored = out
		}
	}

	var flags Flags
	if w.withCRC {
		flags |= FlagHasCRC
	}

	header := make([]byte, 0, 3+2*wire.MaxVarintLen)
	header = append(header, Magic, byte(flags), byte(compression))
	header = wire.AppendVarint(header, uint64(len(payload)))
	header = wire.AppendVarint(header, uint64(len(stored)))

	if _, err := w.w.Write(header); err != nil {
		return fmt.Errorf("stream: write header: %w", err)
	}
	if len(stored) > 0 {
		if _, err := w.w.Write(stored); err != nil {
			return fmt.Errorf("stream: write payload: %w", err)
		}
	}
	if w.withCRC {
		trailer := binary.LittleEndian.AppendUint32(nil, frameChecksum(stored))
		if _, err := w.w.Write(trailer); err != nil {
			return fmt.Errorf("stream: write crc: %w", err)
		}
	}
	return nil
}

// WriteMessage marshals a message and writes it as one frame.
func (w *Writer) WriteMessage(m *proton.Message) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return w.WriteFrame(data)
}

package stream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Neumenon/proton/proton"
)

// Reader reads PS1 frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum decompressed payload size
// (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithoutCRCVerification disables CRC checking of frames that carry
// one.
func WithoutCRCVerification() ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = false
	}
}

// NewReader creates a PS1 frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next frame's payload, decompressed.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() ([]byte, error) {
	magic, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("stream: read magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	flagsByte, err := r.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stream: read flags: %w", err)
	}
	flags := Flags(flagsByte)

	compByte, err := r.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stream: read compression: %w", err)
	}
	compression := Compression(compByte)

	rawLen, err := r.readVarint()
	if err != nil {
		return nil, fmt.Errorf("stream: read payload length: %w", err)
	}
	storedLen, err := r.readVarint()
	if err != nil {
		return nil, fmt.Errorf("stream: read stored length: %w", err)
	}
	if rawLen > uint64(r.maxPayload) {
		return nil, &FrameError{Reason: fmt.Sprintf("payload too large: %d > %d", rawLen, r.maxPayload)}
	}
	if storedLen > uint64(r.maxPayload) {
		return nil, &FrameError{Reason: fmt.Sprintf("stored payload too large: %d > %d", storedLen, r.maxPayload)}
	}

	stored := make([]byte, storedLen)
	if _, err := io.ReadFull(r.r, stored); err != nil {
		return nil, fmt.Errorf("stream: read payload: %w", err)
	}

	if flags&FlagHasCRC != 0 {
		var trailer [4]byte
		if _, err := io.ReadFull(r.r, trailer[:]); err != nil {
			return nil, fmt.Errorf("stream: read crc: %w", err)
		}
		expected := binary.LittleEndian.Uint32(trailer[:])
		if r.verifyCRC {
			if got := frameChecksum(stored); got != expected {
				return nil, &CRCMismatchError{Expected: expected, Got: got}
			}
		}
	}

	return decompress(stored, compression, int(rawLen))
}

// ReadMessage reads the next frame and parses it against a schema.
func (r *Reader) ReadMessage(s *proton.Schema) (*proton.Message, error) {
	payload, err := r.Next()
	if err != nil {
		return nil, err
	}
	return proton.Parse(payload, s)
}

// readVarint reads a base-128 varint byte by byte from the buffered
// reader.
func (r *Reader) readVarint() (uint64, error) {
	var v uint64
	for i := 0; i < 10; i++ {
		c, err := r.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == 9 && c > 1 {
			return 0, &FrameError{Reason: "varint overflow"}
		}
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, nil
		}
	}
	return 0, &FrameError{Reason: "varint too long"}
}

// Package stream implements PS1 (PROTON Stream v1), a binary frame
// envelope for encoded messages, providing:
//   - Message boundaries over any io.Reader/io.Writer pair
//   - Integrity via optional CRC-32
//   - Optional payload compression (zstd or LZ4 block)
//
// PS1 headers are not part of the message encoding. The payload is
// ordinary PROTON wire bytes passed to the codec unchanged.
package stream

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// Magic is the first byte of every PS1 frame, used for resync and to
// reject non-PS1 input early.
const Magic byte = 0xD7

// MaxPayloadSize is the default limit readers enforce on a single
// frame's decompressed payload (64 MiB).
const MaxPayloadSize = 64 << 20

// Flags for PS1 frames.
type Flags uint8

const (
	FlagHasCRC Flags = 0x01 // CRC-32 trailer is present
)

// ErrBadMagic reports input that does not start with a PS1 frame.
var ErrBadMagic = errors.New("stream: bad frame magic")

// FrameError reports a structurally invalid frame header.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return "stream: invalid frame: " + e.Reason
}

// CRCMismatchError reports a frame whose payload failed its CRC
// check.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: crc mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

var crcTable = crc32.MakeTable(crc32.IEEE)

// frameChecksum is the CRC-32 (IEEE) of a frame's stored payload:
// the bytes after compression, exactly as they sit on the wire.
func frameChecksum(stored []byte) uint32 {
	return crc32.Checksum(stored, crcTable)
}

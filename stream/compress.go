package stream

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm applied to a frame's payload.
// Values are protocol constants stored in the frame header; changing
// them breaks frame compatibility.
type Compression uint8

const (
	// CompressionNone indicates an uncompressed payload.
	CompressionNone Compression = 0

	// CompressionLZ4 indicates LZ4 block compression: fast with a
	// modest ratio, the right default for mixed binary payloads.
	CompressionLZ4 Compression = 1

	// CompressionZstd indicates zstd at its default level: better
	// ratios for text-heavy payloads at more CPU.
	CompressionZstd Compression = 2
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// The zstd encoder and decoder are reused across frames; both are
// safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("stream: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("stream: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible signals that compression would not shrink the
// payload; the writer falls back to CompressionNone.
var errIncompressible = errors.New("stream: payload is incompressible")

// compress applies the algorithm to data. Returns errIncompressible
// when the output would not be smaller than the input.
func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		dst := make([]byte, bound)
		written, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("stream: lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return dst[:written], nil

	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return nil, errIncompressible
		}
		return out, nil

	default:
		return nil, fmt.Errorf("stream: unsupported compression: %d", uint8(c))
	}
}

// decompress reverses compress. rawSize must match the original
// payload length exactly; a mismatch is an error.
func decompress(data []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != rawSize {
			return nil, fmt.Errorf("stream: uncompressed payload: size %d does not match header %d",
				len(data), rawSize)
		}
		return data, nil

	case CompressionLZ4:
		dst := make([]byte, rawSize)
		read, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("stream: lz4 decompress: %w", err)
		}
		if read != rawSize {
			return nil, fmt.Errorf("stream: lz4 decompress: got %d bytes, expected %d", read, rawSize)
		}
		return dst, nil

	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("stream: zstd decompress: %w", err)
		}
		if len(out) != rawSize {
			return nil, fmt.Errorf("stream: zstd decompress: got %d bytes, expected %d", len(out), rawSize)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("stream: unsupported compression: %d", uint8(c))
	}
}

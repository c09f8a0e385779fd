// proton - PROTON codec CLI tool
//
// Usage:
//
//	proton dump [--hex] [file]    Print the tag structure of wire bytes
//	proton frames [--hex] [file]  Decode PS1 frames and dump each payload
//	proton version                Print version info
//
// dump needs no schema: it walks tags and prints each field's number,
// wire type, and value, probing length-delimited payloads for nested
// messages.
//
// If no file is given, reads from stdin.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/Neumenon/proton/stream"
	"github.com/Neumenon/proton/wire"
)

const version = "0.1.0"

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	hexInput := flag.Bool("hex", false, "treat input as hex text")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}
	cmd := flag.Arg(0)

	switch cmd {
	case "dump":
		cmdDump(readInput(flag.Arg(1), *hexInput))
	case "frames":
		cmdFrames(readInput(flag.Arg(1), *hexInput))
	case "version", "-v", "--version":
		fmt.Printf("proton %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `proton - PROTON codec CLI tool

Usage:
  proton dump [--hex] [file]    Print the tag structure of wire bytes
  proton frames [--hex] [file]  Decode PS1 frames and dump each payload
  proton version                Print version info

If no file is given, reads from stdin.
`)
}

func readInput(path string, hexInput bool) []byte {
	var in io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("open input")
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		log.Fatal().Err(err).Msg("read input")
	}
	if hexInput {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
				return -1
			}
			return r
		}, string(data))
		data, err = hex.DecodeString(cleaned)
		if err != nil {
			log.Fatal().Err(err).Msg("decode hex input")
		}
	}
	return data
}

func cmdDump(data []byte) {
	if err := dump(os.Stdout, data, 0); err != nil {
		log.Fatal().Err(err).Msg("dump")
	}
}

func cmdFrames(data []byte) {
	r := stream.NewReader(bytes.NewReader(data))
	for i := 0; ; i++ {
		payload, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Fatal().Err(err).Int("frame", i).Msg("read frame")
		}
		fmt.Printf("frame %d (%d bytes)\n", i, len(payload))
		if err := dump(os.Stdout, payload, 1); err != nil {
			log.Fatal().Err(err).Int("frame", i).Msg("dump frame")
		}
	}
}

// dump walks wire bytes without a schema, printing one line per
// field.
func dump(w io.Writer, data []byte, depth int) error {
	indent := strings.Repeat("  ", depth)
	for len(data) > 0 {
		number, wt, n, err := wire.ConsumeTag(data)
		if err != nil {
			return err
		}
		data = data[n:]

		switch wt {
		case wire.TypeVarint:
			v, n, err := wire.Varint(data)
			if err != nil {
				return err
			}
			data = data[n:]
			fmt.Fprintf(w, "%sfield %d (varint) = %d\n", indent, number, v)

		case wire.TypeFixed32:
			v, n, err := wire.Fixed32(data)
			if err != nil {
				return err
			}
			data = data[n:]
			fmt.Fprintf(w, "%sfield %d (fixed32) = 0x%08x\n", indent, number, v)

		case wire.TypeFixed64:
			v, n, err := wire.Fixed64(data)
			if err != nil {
				return err
			}
			data = data[n:]
			fmt.Fprintf(w, "%sfield %d (fixed64) = 0x%016x\n", indent, number, v)

		case wire.TypeBytes:
			size, n, err := wire.Varint(data)
			if err != nil {
				return err
			}
			if size > uint64(len(data)-n) {
				return wire.ErrTruncated
			}
			payload := data[n : n+int(size)]
			data = data[n+int(size):]

			switch {
			case looksLikeMessage(payload):
				fmt.Fprintf(w, "%sfield %d (message, %d bytes)\n", indent, number, len(payload))
				if err := dump(w, payload, depth+1); err != nil {
					return err
				}
			case utf8.Valid(payload) && isPrintable(payload):
				fmt.Fprintf(w, "%sfield %d (string) = %q\n", indent, number, payload)
			default:
				fmt.Fprintf(w, "%sfield %d (bytes, %d) = % x\n", indent, number, len(payload), payload)
			}
		}
	}
	return nil
}

// looksLikeMessage reports whether payload walks cleanly as a
// non-empty sequence of tagged fields. Heuristic only: short strings
// can collide with valid tag bytes.
func looksLikeMessage(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	data := payload
	for len(data) > 0 {
		number, wt, n, err := wire.ConsumeTag(data)
		if err != nil || number == 0 {
			return false
		}
		data = data[n:]
		switch wt {
		case wire.TypeVarint:
			_, n, err = wire.Varint(data)
		case wire.TypeFixed32:
			if len(data) < 4 {
				return false
			}
			n = 4
		case wire.TypeFixed64:
			if len(data) < 8 {
				return false
			}
			n = 8
		case wire.TypeBytes:
			var size uint64
			size, n, err = wire.Varint(data)
			if err == nil {
				if size > uint64(len(data)-n) {
					return false
				}
				n += int(size)
			}
		}
		if err != nil {
			return false
		}
		data = data[n:]
	}
	return true
}

func isPrintable(b []byte) bool {
	for _, c := range string(b) {
		if c < 0x20 && c != '\n' && c != '\t' {
			return false
		}
	}
	return true
}

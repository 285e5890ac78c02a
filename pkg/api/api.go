// Package api provides the high-level entry points for working with captured
// Zcash peer-to-peer payloads.
//
// The wire package works on io.Reader and io.Writer cursors. This package
// works on whole payloads held in memory, the form they take once a framing
// layer or a capture file has delimited them:
//
//  1. ParsePayload / ParseBlock / ParseHeaders / ParseLocatorHashes /
//     ParseVersion - decode a complete payload
//  2. SerializePayload - encode a payload to bytes
//  3. RoundTrip - decode and re-encode, reporting the first differing byte
//  4. SummarizeBlock - txids, formats and transparent addresses of a block
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/suffix-labs/zcash-wire/pkg/wire"
)

// Command names the payload carried by a peer-to-peer message.
type Command string

// Commands whose payloads this package understands. getblocks and
// getheaders share the locator layout.
const (
	CmdBlock      Command = "block"
	CmdHeaders    Command = "headers"
	CmdGetBlocks  Command = "getblocks"
	CmdGetHeaders Command = "getheaders"
	CmdVersion    Command = "version"
)

// Payload is implemented by every payload type in the wire package.
type Payload interface {
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

var (
	// ErrUnknownCommand is returned for commands without a payload codec.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrTrailingBytes is returned when a complete payload decodes without
	// consuming all of its bytes.
	ErrTrailingBytes = errors.New("trailing bytes after payload")
)

// MismatchError is returned by RoundTrip when re-encoding a decoded payload
// does not reproduce the input.
type MismatchError struct {
	Command  Command
	Offset   int // First differing byte
	InputLen int
	OutLen   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: re-encoded payload differs at offset %d "+
		"(input %d bytes, output %d bytes)", e.Command, e.Offset,
		e.InputLen, e.OutLen)
}

// DecodeOptions controls how payloads are decoded.
type DecodeOptions struct {
	// Strict rejects non-minimal compact size encodings.
	Strict bool

	// AllowTrailing accepts bytes after the end of the payload instead
	// of failing with ErrTrailingBytes.
	AllowTrailing bool
}

// NewPayload returns an empty payload value for cmd.
func NewPayload(cmd Command) (Payload, error) {
	switch cmd {
	case CmdBlock:
		return new(wire.Block), nil
	case CmdHeaders:
		return new(wire.Headers), nil
	case CmdGetBlocks, CmdGetHeaders:
		return new(wire.LocatorHashes), nil
	case CmdVersion:
		return new(wire.Version), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

// ============================================================================
// Decoding
// ============================================================================

// ParsePayload decodes raw as the payload of cmd.
//
// Parameters:
//   - cmd: Command the payload belongs to
//   - raw: Complete payload bytes, without the message envelope
//   - opts: Decode options
//
// Returns:
//   - Decoded payload (one of the wire payload types)
//   - Error wrapping a *wire.DecodeError, ErrTrailingBytes or
//     ErrUnknownCommand
func ParsePayload(cmd Command, raw []byte, opts DecodeOptions) (Payload, error) {
	p, err := NewPayload(cmd)
	if err != nil {
		return nil, err
	}
	if err := decodeInto(cmd, p, raw, opts); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseBlock decodes a block payload.
func ParseBlock(raw []byte, opts DecodeOptions) (*wire.Block, error) {
	var block wire.Block
	if err := decodeInto(CmdBlock, &block, raw, opts); err != nil {
		return nil, err
	}
	return &block, nil
}

// ParseHeaders decodes a headers payload.
func ParseHeaders(raw []byte, opts DecodeOptions) (*wire.Headers, error) {
	var msg wire.Headers
	if err := decodeInto(CmdHeaders, &msg, raw, opts); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParseLocatorHashes decodes a getblocks or getheaders payload.
func ParseLocatorHashes(raw []byte, opts DecodeOptions) (*wire.LocatorHashes, error) {
	var msg wire.LocatorHashes
	if err := decodeInto(CmdGetHeaders, &msg, raw, opts); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParseVersion decodes a version payload.
func ParseVersion(raw []byte, opts DecodeOptions) (*wire.Version, error) {
	var msg wire.Version
	if err := decodeInto(CmdVersion, &msg, raw, opts); err != nil {
		return nil, err
	}
	return &msg, nil
}

func decodeInto(cmd Command, p Payload, raw []byte, opts DecodeOptions) error {
	br := bytes.NewReader(raw)

	var r io.Reader = br
	if opts.Strict {
		r = wire.NewCanonicalReader(br)
	}

	if err := p.Decode(r); err != nil {
		log.Debugf("Failed to decode %s payload (%d bytes): %v", cmd,
			len(raw), err)
		return fmt.Errorf("%s: %w", cmd, err)
	}

	if rest := br.Len(); rest > 0 && !opts.AllowTrailing {
		return fmt.Errorf("%s: %w (%d of %d bytes unread)", cmd,
			ErrTrailingBytes, rest, len(raw))
	}

	log.Tracef("Decoded %s payload: %v", cmd, spewClosure(p))
	return nil
}

// ============================================================================
// Encoding
// ============================================================================

// SerializePayload encodes p into a new byte slice.
func SerializePayload(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RoundTrip decodes raw as the payload of cmd, encodes the result again and
// checks that the output is identical to the input.
//
// Parameters:
//   - cmd: Command the payload belongs to
//   - raw: Complete payload bytes
//   - opts: Decode options. With AllowTrailing set only the consumed
//     prefix of raw is compared.
//
// Returns:
//   - The decoded payload, also on mismatch
//   - *MismatchError if the bytes differ, or a decode/encode error
func RoundTrip(cmd Command, raw []byte, opts DecodeOptions) (Payload, error) {
	p, err := NewPayload(cmd)
	if err != nil {
		return nil, err
	}

	br := bytes.NewReader(raw)
	var r io.Reader = br
	if opts.Strict {
		r = wire.NewCanonicalReader(br)
	}
	if err := p.Decode(r); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}

	consumed := raw[:len(raw)-br.Len()]
	if len(consumed) != len(raw) && !opts.AllowTrailing {
		return p, fmt.Errorf("%s: %w (%d of %d bytes unread)", cmd,
			ErrTrailingBytes, br.Len(), len(raw))
	}

	out, err := SerializePayload(p)
	if err != nil {
		return p, fmt.Errorf("%s: %w", cmd, err)
	}

	if off := firstDifference(consumed, out); off >= 0 {
		log.Warnf("Round trip of %s payload differs at offset %d", cmd, off)
		return p, &MismatchError{
			Command:  cmd,
			Offset:   off,
			InputLen: len(consumed),
			OutLen:   len(out),
		}
	}

	log.Debugf("Round trip of %s payload OK (%d bytes)", cmd, len(out))
	return p, nil
}

// firstDifference returns the offset of the first differing byte of a and b,
// or -1 if they are equal.
func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

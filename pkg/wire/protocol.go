package wire

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ProtocolVersion is the 32-bit version tag carried by the handshake and the
// block-related payloads.
type ProtocolVersion uint32

const (
	// CurrentProtocolVersion is the protocol version advertised by payloads
	// built with the constructors in this package.
	CurrentProtocolVersion ProtocolVersion = 170013

	// MinProtocolVersion is the oldest protocol version the captured
	// vectors were produced with.
	MinProtocolVersion ProtocolVersion = 170002
)

func readProtocolVersion(r io.Reader) (ProtocolVersion, error) {
	v, err := binarySerializer.Uint32(r, littleEndian)
	return ProtocolVersion(v), err
}

func writeProtocolVersion(w io.Writer, v ProtocolVersion) error {
	return binarySerializer.PutUint32(w, littleEndian, uint32(v))
}

// ServiceFlag identifies services supported by a peer.
type ServiceFlag uint64

const (
	// SFNodeNetwork is a flag used to indicate a peer is a full node.
	SFNodeNetwork ServiceFlag = 1 << iota
)

// String returns the ServiceFlag in human-readable form.
func (f ServiceFlag) String() string {
	if f == 0 {
		return "0x0"
	}

	var s []string
	if f&SFNodeNetwork != 0 {
		s = append(s, "SFNodeNetwork")
		f &^= SFNodeNetwork
	}
	if f != 0 {
		s = append(s, fmt.Sprintf("0x%x", uint64(f)))
	}
	return strings.Join(s, "|")
}

// Nonce is the 64-bit value exchanged in the handshake to detect
// connections to self. It is unrelated to the 32-byte HeaderNonce.
type Nonce uint64

// NewNonce draws a random handshake nonce.
func NewNonce() (Nonce, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("reading random nonce: %w", err)
	}
	return Nonce(littleEndian.Uint64(b[:])), nil
}

func readNonce(r io.Reader) (Nonce, error) {
	v, err := binarySerializer.Uint64(r, littleEndian)
	return Nonce(v), err
}

func writeNonce(w io.Writer, n Nonce) error {
	return binarySerializer.PutUint64(w, littleEndian, uint64(n))
}

// HeaderNonceSize is the size of the block-mining nonce in a header.
const HeaderNonceSize = 32

// HeaderNonce is the 32-byte nonce a block was mined with. It is a
// different type from the handshake Nonce so the two cannot be swapped.
type HeaderNonce [HeaderNonceSize]byte

// String returns the nonce as hex in wire order.
func (n HeaderNonce) String() string {
	return hex.EncodeToString(n[:])
}

// EquihashSolutionSize is the size of the Equihash (n=200, k=9) solution
// carried by every header in the supported protocol range.
const EquihashSolutionSize = 1344

// EquihashSolution is the proof-of-work witness of a header.
type EquihashSolution [EquihashSolutionSize]byte

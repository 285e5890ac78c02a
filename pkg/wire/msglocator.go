package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxBlockLocatorsPerMsg is the maximum number of locator hashes a node
// builds for one request. Decoding does not enforce it.
const MaxBlockLocatorsPerMsg = 101

// LocatorHashes is the body of getblocks and getheaders requests.
//
// Wire layout:
//
//	version (u32le) || count (compact size) || count * hash || hash_stop
//
// A zero HashStop asks for as many entries as the peer is willing to send.
type LocatorHashes struct {
	ProtocolVersion    ProtocolVersion
	BlockLocatorHashes []*chainhash.Hash
	HashStop           chainhash.Hash
}

// NewLocatorHashes returns a locator for hashes, stopping at stop, tagged
// with CurrentProtocolVersion.
func NewLocatorHashes(hashes []*chainhash.Hash, stop *chainhash.Hash) *LocatorHashes {
	msg := &LocatorHashes{
		ProtocolVersion:    CurrentProtocolVersion,
		BlockLocatorHashes: hashes,
	}
	if stop != nil {
		msg.HashStop = *stop
	}
	return msg
}

// EmptyLocatorHashes returns a locator with no hashes and a zero stop hash,
// which asks for anything from the peer's tip.
func EmptyLocatorHashes() *LocatorHashes {
	return NewLocatorHashes([]*chainhash.Hash{}, nil)
}

// AddBlockLocatorHash appends hash to the locator.
func (msg *LocatorHashes) AddBlockLocatorHash(hash *chainhash.Hash) {
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, hash)
}

// Encode writes the locator to w.
func (msg *LocatorHashes) Encode(w io.Writer) error {
	if err := writeProtocolVersion(w, msg.ProtocolVersion); err != nil {
		return writeErr("version", err)
	}
	if err := WriteVarInt(w, uint64(len(msg.BlockLocatorHashes))); err != nil {
		return writeErr("count", err)
	}
	for i, hash := range msg.BlockLocatorHashes {
		if err := writeHash(w, hash); err != nil {
			return writeErr(fmt.Sprintf("locator[%d]", i), err)
		}
	}
	if err := writeHash(w, &msg.HashStop); err != nil {
		return writeErr("hash_stop", err)
	}
	return nil
}

// Decode reads a locator from r.
func (msg *LocatorHashes) Decode(r io.Reader) error {
	var out LocatorHashes
	var err error

	if out.ProtocolVersion, err = readProtocolVersion(r); err != nil {
		return readErr("version", err)
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("count", err)
	}

	// Allocate all the hashes in one slab and point into it.
	prealloc := preallocCap(r, count, chainhash.HashSize)
	hashes := make([]chainhash.Hash, 0, prealloc)
	for i := uint64(0); i < count; i++ {
		var hash chainhash.Hash
		if err := readHash(r, &hash); err != nil {
			return readErr(fmt.Sprintf("locator[%d]", i), err)
		}
		hashes = append(hashes, hash)
	}
	out.BlockLocatorHashes = make([]*chainhash.Hash, len(hashes))
	for i := range hashes {
		out.BlockLocatorHashes[i] = &hashes[i]
	}

	if err := readHash(r, &out.HashStop); err != nil {
		return readErr("hash_stop", err)
	}

	*msg = out
	return nil
}

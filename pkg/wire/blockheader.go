package wire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeaderPreimageLen is the size of a header serialized without its
// transaction count: version (4), three hashes (96), timestamp (4), bits (4),
// nonce (32), solution size (3) and solution (1344).
const BlockHeaderPreimageLen = 4 + 3*chainhash.HashSize + 4 + 4 +
	HeaderNonceSize + 3 + EquihashSolutionSize

// minHeaderLen is the smallest possible header including a one byte
// transaction count. It bounds pre-allocation for header vectors.
const minHeaderLen = BlockHeaderPreimageLen + 1

// BlockHeader defines information about a block and is used in the block
// (Block) and headers (Headers) payloads.
//
// The serialization up to and including Solution is the pre-image of the
// block hash. TxCount is appended only when the header is carried on its own
// or at the front of a block.
type BlockHeader struct {
	// Version of the block. Typed as the protocol version tag on the wire.
	Version ProtocolVersion

	// Hash of the previous block header in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Commitment used by light clients (final Sapling root, chain history
	// root or block commitments depending on the network upgrade).
	LightClientRoot chainhash.Hash

	// Time the block was created, in seconds since the Unix epoch.
	Timestamp uint32

	// Difficulty target for the block in compact form.
	Bits uint32

	// Nonce used to generate the block.
	Nonce HeaderNonce

	// Declared length of Solution. Always EquihashSolutionSize for the
	// supported protocol range.
	SolutionSize uint64

	// Equihash proof-of-work solution.
	Solution EquihashSolution

	// Number of transactions in the enclosing block.
	TxCount uint64
}

// EncodeWithoutTxCount writes the block hash pre-image: every header field
// except the trailing transaction count.
func (h *BlockHeader) EncodeWithoutTxCount(w io.Writer) error {
	if err := writeProtocolVersion(w, h.Version); err != nil {
		return writeErr("version", err)
	}
	if err := writeHash(w, &h.PrevBlock); err != nil {
		return writeErr("prev_block", err)
	}
	if err := writeHash(w, &h.MerkleRoot); err != nil {
		return writeErr("merkle_root", err)
	}
	if err := writeHash(w, &h.LightClientRoot); err != nil {
		return writeErr("light_client_root", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, h.Timestamp); err != nil {
		return writeErr("timestamp", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, h.Bits); err != nil {
		return writeErr("bits", err)
	}
	if err := WriteFixedBytes(w, h.Nonce[:]); err != nil {
		return writeErr("nonce", err)
	}
	if err := WriteVarInt(w, h.SolutionSize); err != nil {
		return writeErr("solution_size", err)
	}
	if err := WriteFixedBytes(w, h.Solution[:]); err != nil {
		return writeErr("solution", err)
	}
	return nil
}

// Encode writes the header followed by its transaction count.
func (h *BlockHeader) Encode(w io.Writer) error {
	if err := h.EncodeWithoutTxCount(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, h.TxCount); err != nil {
		return writeErr("tx_count", err)
	}
	return nil
}

// Decode reads a header, including its transaction count, from r.
func (h *BlockHeader) Decode(r io.Reader) error {
	var bh BlockHeader
	var err error

	if bh.Version, err = readProtocolVersion(r); err != nil {
		return readErr("version", err)
	}
	if err := readHash(r, &bh.PrevBlock); err != nil {
		return readErr("prev_block", err)
	}
	if err := readHash(r, &bh.MerkleRoot); err != nil {
		return readErr("merkle_root", err)
	}
	if err := readHash(r, &bh.LightClientRoot); err != nil {
		return readErr("light_client_root", err)
	}
	if bh.Timestamp, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("timestamp", err)
	}
	if bh.Bits, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("bits", err)
	}
	if err := ReadFixedBytes(r, bh.Nonce[:]); err != nil {
		return readErr("nonce", err)
	}
	if bh.SolutionSize, err = ReadVarInt(r); err != nil {
		return readErr("solution_size", err)
	}
	if bh.SolutionSize != EquihashSolutionSize {
		return invalidf("solution_size", "declared %d bytes, expected %d",
			bh.SolutionSize, EquihashSolutionSize)
	}
	if err := ReadFixedBytes(r, bh.Solution[:]); err != nil {
		return readErr("solution", err)
	}
	if bh.TxCount, err = ReadVarInt(r); err != nil {
		return readErr("tx_count", err)
	}

	*h = bh
	return nil
}

// BlockHash computes the block identifier hash for the given block header:
// the double SHA-256 of everything prior to the number of transactions.
//
// The result is in wire (little-endian) byte order. chainhash.Hash.String
// reverses it for display.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	// Encoding into an in-memory buffer cannot fail short of running out
	// of memory, so the error is ignored.
	buf := bytes.NewBuffer(make([]byte, 0, BlockHeaderPreimageLen))
	_ = h.EncodeWithoutTxCount(buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

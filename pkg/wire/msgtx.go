package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Transaction format constants.
//
// References:
//   - Overwinter (ZIP 202): https://zips.z.cash/zip-0202
//   - Sapling (ZIP 243 / protocol spec section 7.1)
//   - NU5 v5 format (ZIP 225): https://zips.z.cash/zip-0225
const (
	// OverwinterVersionGroupID is the version group of v3 transactions.
	OverwinterVersionGroupID uint32 = 0x03C48270

	// SaplingVersionGroupID is the version group of v4 transactions.
	SaplingVersionGroupID uint32 = 0x892F2085

	// NU5VersionGroupID is the version group of v5 transactions.
	NU5VersionGroupID uint32 = 0x26A7270A

	// overwinteredFlag is bit 31 of the transaction header.
	overwinteredFlag uint32 = 1 << 31

	// MaxBlockPayload is the maximum number of bytes a block may occupy.
	// It bounds every length prefix read while decoding transactions.
	MaxBlockPayload = 2000000

	// MaxPrevOutIndex is the index used by coinbase inputs.
	MaxPrevOutIndex uint32 = math.MaxUint32

	// minTxInLen is outpoint (36) + script length (1) + sequence (4).
	minTxInLen = chainhash.HashSize + 4 + 1 + 4

	// minTxOutLen is value (8) + script length (1).
	minTxOutLen = 8 + 1
)

// TxFormat identifies the serialization layout of a transaction.
type TxFormat uint8

const (
	// TxFormatUnknown is returned for header/version group combinations
	// this package cannot decode.
	TxFormatUnknown TxFormat = iota

	// TxFormatV1 is the original transparent-only layout.
	TxFormatV1

	// TxFormatSprout is the v2 layout with JoinSplits (BCTV14 proofs).
	TxFormatSprout

	// TxFormatOverwinter is the v3 layout with version group and expiry.
	TxFormatOverwinter

	// TxFormatSapling is the v4 layout with Sapling spends and outputs and
	// Groth16 JoinSplit proofs.
	TxFormatSapling

	// TxFormatNU5 is the v5 layout of ZIP 225 with Orchard actions.
	TxFormatNU5
)

// String returns the name of the format.
func (f TxFormat) String() string {
	switch f {
	case TxFormatV1:
		return "v1"
	case TxFormatSprout:
		return "sprout"
	case TxFormatOverwinter:
		return "overwinter"
	case TxFormatSapling:
		return "sapling"
	case TxFormatNU5:
		return "nu5"
	default:
		return "unknown"
	}
}

// OutPoint defines a data type that is used to track previous transaction
// outputs.
type OutPoint struct {
	Hash  chainhash.Hash // Id of the transaction holding the output
	Index uint32         // Index of the output in that transaction
}

// TxIn defines a transparent transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut defines a transparent transaction output.
type TxOut struct {
	Value    int64  // Value in zatoshis
	PkScript []byte // Locking script
}

// Tx is a Zcash transaction in any of the formats that appear in the
// supported block range. Fields that a format does not carry are left at
// their zero value and are not serialized.
type Tx struct {
	// Header fields
	Overwintered      bool   // Bit 31 of the header
	Version           uint32 // Header with the overwintered bit cleared
	VersionGroupID    uint32 // Overwintered transactions only
	ConsensusBranchID uint32 // v5 only

	// Transparent bundle
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32

	// Overwintered transactions only.
	ExpiryHeight uint32

	// Sapling bundle (v4 and v5). In v4 every spend carries its own anchor;
	// in v5 SaplingAnchor is shared by all spends.
	ValueBalanceSapling int64
	SaplingSpends       []*SaplingSpend
	SaplingOutputs      []*SaplingOutput
	SaplingAnchor       chainhash.Hash
	BindingSigSapling   [64]byte

	// Sprout JoinSplits (v2, v3 and v4).
	JoinSplits      []*JoinSplit
	JoinSplitPubKey [32]byte
	JoinSplitSig    [64]byte

	// Orchard bundle (v5). Nil when the transaction has no actions.
	Orchard *OrchardBundle
}

// Format reports the serialization layout selected by the header and
// version group.
func (tx *Tx) Format() TxFormat {
	if !tx.Overwintered {
		switch {
		case tx.Version == 1:
			return TxFormatV1
		case tx.Version >= 2:
			return TxFormatSprout
		default:
			return TxFormatUnknown
		}
	}

	switch {
	case tx.Version == 3 && tx.VersionGroupID == OverwinterVersionGroupID:
		return TxFormatOverwinter
	case tx.Version == 4 && tx.VersionGroupID == SaplingVersionGroupID:
		return TxFormatSapling
	case tx.Version == 5 && tx.VersionGroupID == NU5VersionGroupID:
		return TxFormatNU5
	default:
		return TxFormatUnknown
	}
}

// Header returns the first four bytes of the serialization: the version
// with the overwintered flag in bit 31.
func (tx *Tx) Header() uint32 {
	h := tx.Version &^ overwinteredFlag
	if tx.Overwintered {
		h |= overwinteredFlag
	}
	return h
}

// IsCoinBase determines whether or not a transaction is a coinbase. A
// coinbase has exactly one transparent input whose previous outpoint is the
// zero hash with index 0xffffffff.
func (tx *Tx) IsCoinBase() bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prevOut := &tx.TxIn[0].PreviousOutPoint
	return prevOut.Index == MaxPrevOutIndex && prevOut.Hash == (chainhash.Hash{})
}

// HasSapling reports whether the transaction carries any Sapling spends or
// outputs.
func (tx *Tx) HasSapling() bool {
	return len(tx.SaplingSpends) > 0 || len(tx.SaplingOutputs) > 0
}

// Encode writes the transaction to w in the layout selected by Format.
func (tx *Tx) Encode(w io.Writer) error {
	format := tx.Format()
	if format == TxFormatUnknown {
		return fmt.Errorf("%w: unsupported transaction version %d "+
			"(overwintered=%v, group 0x%08x)", ErrInvalidData,
			tx.Version, tx.Overwintered, tx.VersionGroupID)
	}

	if err := binarySerializer.PutUint32(w, littleEndian, tx.Header()); err != nil {
		return writeErr("header", err)
	}
	if tx.Overwintered {
		if err := binarySerializer.PutUint32(w, littleEndian, tx.VersionGroupID); err != nil {
			return writeErr("version_group_id", err)
		}
	}

	if format == TxFormatNU5 {
		return tx.encodeV5(w)
	}

	if err := tx.encodeTransparent(w); err != nil {
		return err
	}
	if err := binarySerializer.PutUint32(w, littleEndian, tx.LockTime); err != nil {
		return writeErr("lock_time", err)
	}
	if tx.Overwintered {
		if err := binarySerializer.PutUint32(w, littleEndian, tx.ExpiryHeight); err != nil {
			return writeErr("expiry_height", err)
		}
	}

	if format == TxFormatSapling {
		if err := tx.encodeSaplingV4(w); err != nil {
			return err
		}
	}

	if format != TxFormatV1 {
		if err := tx.encodeJoinSplits(w); err != nil {
			return err
		}
	}

	if format == TxFormatSapling && tx.HasSapling() {
		if err := WriteFixedBytes(w, tx.BindingSigSapling[:]); err != nil {
			return writeErr("binding_sig", err)
		}
	}

	return nil
}

// Decode reads a transaction from r.
func (tx *Tx) Decode(r io.Reader) error {
	var msg Tx

	header, err := binarySerializer.Uint32(r, littleEndian)
	if err != nil {
		return readErr("header", err)
	}
	msg.Overwintered = header&overwinteredFlag != 0
	msg.Version = header &^ overwinteredFlag

	if msg.Overwintered {
		if msg.VersionGroupID, err = binarySerializer.Uint32(r, littleEndian); err != nil {
			return readErr("version_group_id", err)
		}
	}

	format := msg.Format()
	switch format {
	case TxFormatUnknown:
		return invalidf("header", "unsupported transaction version %d "+
			"(overwintered=%v, group 0x%08x)", msg.Version,
			msg.Overwintered, msg.VersionGroupID)

	case TxFormatNU5:
		if err := msg.decodeV5(r); err != nil {
			return err
		}
		*tx = msg
		return nil
	}

	if err := msg.decodeTransparent(r); err != nil {
		return err
	}
	if msg.LockTime, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("lock_time", err)
	}
	if msg.Overwintered {
		if msg.ExpiryHeight, err = binarySerializer.Uint32(r, littleEndian); err != nil {
			return readErr("expiry_height", err)
		}
	}

	if format == TxFormatSapling {
		if err := msg.decodeSaplingV4(r); err != nil {
			return err
		}
	}

	if format != TxFormatV1 {
		if err := msg.decodeJoinSplits(r, format == TxFormatSapling); err != nil {
			return err
		}
	}

	if format == TxFormatSapling && msg.HasSapling() {
		if err := ReadFixedBytes(r, msg.BindingSigSapling[:]); err != nil {
			return readErr("binding_sig", err)
		}
	}

	*tx = msg
	return nil
}

// encodeV5 writes everything after the version group of a v5 transaction.
func (tx *Tx) encodeV5(w io.Writer) error {
	if err := binarySerializer.PutUint32(w, littleEndian, tx.ConsensusBranchID); err != nil {
		return writeErr("consensus_branch_id", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, tx.LockTime); err != nil {
		return writeErr("lock_time", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, tx.ExpiryHeight); err != nil {
		return writeErr("expiry_height", err)
	}
	if err := tx.encodeTransparent(w); err != nil {
		return err
	}
	if err := tx.encodeSaplingV5(w); err != nil {
		return err
	}
	return tx.encodeOrchard(w)
}

// decodeV5 reads everything after the version group of a v5 transaction.
func (tx *Tx) decodeV5(r io.Reader) error {
	var err error
	if tx.ConsensusBranchID, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("consensus_branch_id", err)
	}
	if tx.LockTime, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("lock_time", err)
	}
	if tx.ExpiryHeight, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("expiry_height", err)
	}
	if err := tx.decodeTransparent(r); err != nil {
		return err
	}
	if err := tx.decodeSaplingV5(r); err != nil {
		return err
	}
	return tx.decodeOrchard(r)
}

// encodeTransparent writes the input and output vectors.
func (tx *Tx) encodeTransparent(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(tx.TxIn))); err != nil {
		return writeErr("vin_count", err)
	}
	for i, ti := range tx.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return writeErr(fmt.Sprintf("vin[%d]", i), err)
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.TxOut))); err != nil {
		return writeErr("vout_count", err)
	}
	for i, to := range tx.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return writeErr(fmt.Sprintf("vout[%d]", i), err)
		}
	}
	return nil
}

// decodeTransparent reads the input and output vectors.
func (tx *Tx) decodeTransparent(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("vin_count", err)
	}
	tx.TxIn = make([]*TxIn, 0, preallocCap(r, count, minTxInLen))
	for i := uint64(0); i < count; i++ {
		ti := new(TxIn)
		if err := readTxIn(r, ti); err != nil {
			return readErr(fmt.Sprintf("vin[%d]", i), err)
		}
		tx.TxIn = append(tx.TxIn, ti)
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return readErr("vout_count", err)
	}
	tx.TxOut = make([]*TxOut, 0, preallocCap(r, count, minTxOutLen))
	for i := uint64(0); i < count; i++ {
		to := new(TxOut)
		if err := readTxOut(r, to); err != nil {
			return readErr(fmt.Sprintf("vout[%d]", i), err)
		}
		tx.TxOut = append(tx.TxOut, to)
	}
	return nil
}

// readTxIn reads a single transparent input.
func readTxIn(r io.Reader, ti *TxIn) error {
	if err := readHash(r, &ti.PreviousOutPoint.Hash); err != nil {
		return readErr("prevout_hash", err)
	}

	var err error
	if ti.PreviousOutPoint.Index, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("prevout_index", err)
	}
	if ti.SignatureScript, err = ReadVarBytes(r, MaxBlockPayload, "script_sig"); err != nil {
		return readErr("script_sig", err)
	}
	if ti.Sequence, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("sequence", err)
	}
	return nil
}

// writeTxIn writes a single transparent input.
func writeTxIn(w io.Writer, ti *TxIn) error {
	if err := writeHash(w, &ti.PreviousOutPoint.Hash); err != nil {
		return writeErr("prevout_hash", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, ti.PreviousOutPoint.Index); err != nil {
		return writeErr("prevout_index", err)
	}
	if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
		return writeErr("script_sig", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, ti.Sequence); err != nil {
		return writeErr("sequence", err)
	}
	return nil
}

// readTxOut reads a single transparent output.
func readTxOut(r io.Reader, to *TxOut) error {
	value, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("value", err)
	}
	to.Value = int64(value)

	if to.PkScript, err = ReadVarBytes(r, MaxBlockPayload, "script_pubkey"); err != nil {
		return readErr("script_pubkey", err)
	}
	return nil
}

// writeTxOut writes a single transparent output.
func writeTxOut(w io.Writer, to *TxOut) error {
	if err := binarySerializer.PutUint64(w, littleEndian, uint64(to.Value)); err != nil {
		return writeErr("value", err)
	}
	if err := WriteVarBytes(w, to.PkScript); err != nil {
		return writeErr("script_pubkey", err)
	}
	return nil
}

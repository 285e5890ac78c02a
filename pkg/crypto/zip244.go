// Package crypto computes transaction identifiers, ZIP 244 signature hashes
// and transparent addresses for decoded wire transactions.
//
// ZIP 244 defines the v5 transaction digest algorithm. A v5 txid, and every
// v5 signature hash, commits to four component digests:
//  1. Header digest (version, version group, branch id, lock time, expiry)
//  2. Transparent digest (prevouts, sequences, outputs)
//  3. Sapling digest (spends, outputs, value balance)
//  4. Orchard digest (actions, flags, value balance, anchor)
//
// References:
//   - ZIP 244: https://zips.z.cash/zip-0244
//   - ZIP 225: https://zips.z.cash/zip-0225
package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/suffix-labs/zcash-wire/pkg/wire"
)

// blake2bNew256 creates a new BLAKE2b-256 hash with the given personalization.
// The personalization is NOT a key, but a distinct parameter that modifies
// the hash function.
func blake2bNew256(personalization []byte) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   32,
		Person: personalization,
	})
	if err != nil {
		// Only reachable with a personalization longer than 16 bytes.
		panic(err)
	}
	return h
}

// ZIP 244 constants - personalization strings for BLAKE2b hashing
const (
	// Transaction ID personalization (12 bytes prefix + 4 bytes branch ID)
	Zip244HashPersonalization = "ZcashTxHash_"

	// Component digest personalizations (all 16 bytes)
	HeaderDigestPersonalization      = "ZTxIdHeadersHash"
	TransparentDigestPersonalization = "ZTxIdTranspaHash"
	SaplingDigestPersonalization     = "ZTxIdSaplingHash"
	OrchardDigestPersonalization     = "ZTxIdOrchardHash"

	// Transparent sub-digests
	PrevoutDigestPersonalization  = "ZTxIdPrevoutHash"
	SequenceDigestPersonalization = "ZTxIdSequencHash"
	OutputsDigestPersonalization  = "ZTxIdOutputsHash"

	// Transparent signature digests (for amounts and scripts)
	AmountsDigestPersonalization = "ZTxTrAmountsHash"
	ScriptsDigestPersonalization = "ZTxTrScriptsHash"
	TxInDigestPersonalization    = "Zcash___TxInHash"

	// Sapling sub-digests
	SaplingSpendsDigestPersonalization      = "ZTxIdSSpendsHash"
	SaplingSpendsCompactPersonalization     = "ZTxIdSSpendCHash"
	SaplingSpendsNoncompactPersonalization  = "ZTxIdSSpendNHash"
	SaplingOutputsDigestPersonalization     = "ZTxIdSOutputHash"
	SaplingOutputsCompactPersonalization    = "ZTxIdSOutC__Hash"
	SaplingOutputsMemosPersonalization      = "ZTxIdSOutM__Hash"
	SaplingOutputsNoncompactPersonalization = "ZTxIdSOutN__Hash"

	// Orchard sub-digests
	OrchardActionsCompactPersonalization    = "ZTxIdOrcActCHash"
	OrchardActionsMemosPersonalization      = "ZTxIdOrcActMHash"
	OrchardActionsNoncompactPersonalization = "ZTxIdOrcActNHash"
)

// Note ciphertext split points used by the compact, memo and non-compact
// digests.
const (
	compactCiphertextLen = 52
	memoEnd              = 564
)

// SIGHASH type constants
const (
	SighashAll          uint8 = 0x01
	SighashNone         uint8 = 0x02
	SighashSingle       uint8 = 0x03
	SighashMask         uint8 = 0x1f
	SighashAnyoneCanPay uint8 = 0x80
)

var (
	// ErrNotV5 is returned when a ZIP 244 digest is requested for a
	// transaction that does not use the v5 format.
	ErrNotV5 = errors.New("transaction is not v5")

	// ErrInputIndex is returned when a signature hash is requested for an
	// input the transaction does not have.
	ErrInputIndex = errors.New("input index out of bounds")
)

// TxDigests contains all transaction digests for ZIP 244
type TxDigests struct {
	HeaderDigest      [32]byte
	TransparentDigest [32]byte
	SaplingDigest     [32]byte
	OrchardDigest     [32]byte
}

func sum256(h hash.Hash) [32]byte {
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

func putUint32(h hash.Hash, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	h.Write(b[:])
}

func putUint64(h hash.Hash, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	h.Write(b[:])
}

// ComputeTxDigests computes all digests for a v5 transaction.
func ComputeTxDigests(tx *wire.Tx) (*TxDigests, error) {
	if tx.Format() != wire.TxFormatNU5 {
		return nil, fmt.Errorf("%w: format %v", ErrNotV5, tx.Format())
	}

	return &TxDigests{
		HeaderDigest:      computeHeaderDigest(tx),
		TransparentDigest: computeTransparentDigest(tx),
		SaplingDigest:     computeSaplingDigest(tx),
		OrchardDigest:     computeOrchardDigest(tx.Orchard),
	}, nil
}

// computeHeaderDigest computes the header digest (T.1)
// T.1: header_digest = BLAKE2b-256("ZTxIdHeadersHash", header)
func computeHeaderDigest(tx *wire.Tx) [32]byte {
	h := blake2bNew256([]byte(HeaderDigestPersonalization))

	// version (4) || version_group_id (4) || consensus_branch_id (4) ||
	// lock_time (4) || expiry_height (4)
	putUint32(h, tx.Header())
	putUint32(h, tx.VersionGroupID)
	putUint32(h, tx.ConsensusBranchID)
	putUint32(h, tx.LockTime)
	putUint32(h, tx.ExpiryHeight)

	return sum256(h)
}

// computeTransparentDigest computes the transparent digest (T.2)
// T.2a: prevouts_digest = BLAKE2b-256("ZTxIdPrevoutHash", prevouts)
// T.2b: sequence_digest = BLAKE2b-256("ZTxIdSequencHash", sequences)
// T.2c: outputs_digest = BLAKE2b-256("ZTxIdOutputsHash", outputs)
// T.2: transparent_digest = BLAKE2b-256("ZTxIdTranspaHash", T.2a || T.2b || T.2c)
func computeTransparentDigest(tx *wire.Tx) [32]byte {
	h := blake2bNew256([]byte(TransparentDigestPersonalization))

	// No transparent inputs or outputs: empty hash with personalization.
	if len(tx.TxIn) == 0 && len(tx.TxOut) == 0 {
		return sum256(h)
	}

	prevoutsDigest := computePrevoutsDigest(tx.TxIn, false)
	sequenceDigest := computeSequenceDigest(tx.TxIn, false)
	outputsDigest := computeOutputsDigest(tx.TxOut)

	h.Write(prevoutsDigest[:])
	h.Write(sequenceDigest[:])
	h.Write(outputsDigest[:])

	return sum256(h)
}

func computePrevoutsDigest(inputs []*wire.TxIn, anyoneCanPay bool) [32]byte {
	h := blake2bNew256([]byte(PrevoutDigestPersonalization))
	if !anyoneCanPay {
		for _, in := range inputs {
			h.Write(in.PreviousOutPoint.Hash[:])
			putUint32(h, in.PreviousOutPoint.Index)
		}
	}
	return sum256(h)
}

func computeSequenceDigest(inputs []*wire.TxIn, anyoneCanPay bool) [32]byte {
	h := blake2bNew256([]byte(SequenceDigestPersonalization))
	if !anyoneCanPay {
		for _, in := range inputs {
			putUint32(h, in.Sequence)
		}
	}
	return sum256(h)
}

func writeTxOut(h hash.Hash, out *wire.TxOut) {
	putUint64(h, uint64(out.Value))
	// Writes to a hash never fail.
	_ = wire.WriteVarBytes(h, out.PkScript)
}

func computeOutputsDigest(outputs []*wire.TxOut) [32]byte {
	h := blake2bNew256([]byte(OutputsDigestPersonalization))
	for _, out := range outputs {
		writeTxOut(h, out)
	}
	return sum256(h)
}

// computeSaplingDigest computes the Sapling digest (T.3). Returns the empty
// hash with personalization if the transaction has no Sapling components.
func computeSaplingDigest(tx *wire.Tx) [32]byte {
	h := blake2bNew256([]byte(SaplingDigestPersonalization))
	if !tx.HasSapling() {
		return sum256(h)
	}

	spendsDigest := computeSaplingSpendsDigest(tx.SaplingSpends, &tx.SaplingAnchor)
	h.Write(spendsDigest[:])

	outputsDigest := computeSaplingOutputsDigest(tx.SaplingOutputs)
	h.Write(outputsDigest[:])

	putUint64(h, uint64(tx.ValueBalanceSapling))

	return sum256(h)
}

func computeSaplingSpendsDigest(spends []*wire.SaplingSpend, anchor *chainhash.Hash) [32]byte {
	h := blake2bNew256([]byte(SaplingSpendsDigestPersonalization))
	if len(spends) == 0 {
		return sum256(h)
	}

	// Compact digest: nullifiers
	compact := blake2bNew256([]byte(SaplingSpendsCompactPersonalization))
	for _, sp := range spends {
		compact.Write(sp.Nullifier[:])
	}
	compactDigest := sum256(compact)
	h.Write(compactDigest[:])

	// Noncompact digest: cv, anchor, rk. v5 shares one anchor.
	noncompact := blake2bNew256([]byte(SaplingSpendsNoncompactPersonalization))
	for _, sp := range spends {
		noncompact.Write(sp.CV[:])
		noncompact.Write(anchor[:])
		noncompact.Write(sp.Rk[:])
	}
	noncompactDigest := sum256(noncompact)
	h.Write(noncompactDigest[:])

	return sum256(h)
}

func computeSaplingOutputsDigest(outputs []*wire.SaplingOutput) [32]byte {
	h := blake2bNew256([]byte(SaplingOutputsDigestPersonalization))
	if len(outputs) == 0 {
		return sum256(h)
	}

	// Compact digest: cmu, ephemeralKey, encCiphertext[:52]
	compact := blake2bNew256([]byte(SaplingOutputsCompactPersonalization))
	for _, out := range outputs {
		compact.Write(out.Cmu[:])
		compact.Write(out.EphemeralKey[:])
		compact.Write(out.EncCiphertext[:compactCiphertextLen])
	}

	// Memos digest: encCiphertext[52:564]
	memos := blake2bNew256([]byte(SaplingOutputsMemosPersonalization))
	for _, out := range outputs {
		memos.Write(out.EncCiphertext[compactCiphertextLen:memoEnd])
	}

	// Noncompact digest: cv, encCiphertext[564:], outCiphertext
	noncompact := blake2bNew256([]byte(SaplingOutputsNoncompactPersonalization))
	for _, out := range outputs {
		noncompact.Write(out.CV[:])
		noncompact.Write(out.EncCiphertext[memoEnd:])
		noncompact.Write(out.OutCiphertext[:])
	}

	for _, d := range [][32]byte{sum256(compact), sum256(memos), sum256(noncompact)} {
		h.Write(d[:])
	}
	return sum256(h)
}

// computeOrchardDigest computes the Orchard digest (T.4)
// Structure: BLAKE2b-256("ZTxIdOrchardHash", compact || memos || noncompact || flags || valueBalance || anchor)
func computeOrchardDigest(ob *wire.OrchardBundle) [32]byte {
	h := blake2bNew256([]byte(OrchardDigestPersonalization))
	if ob == nil || len(ob.Actions) == 0 {
		return sum256(h)
	}

	// Compact digest: nullifier || cmx || ephemeralKey || encCiphertext[:52]
	compact := blake2bNew256([]byte(OrchardActionsCompactPersonalization))
	for _, a := range ob.Actions {
		compact.Write(a.Nullifier[:])
		compact.Write(a.Cmx[:])
		compact.Write(a.EphemeralKey[:])
		compact.Write(a.EncCiphertext[:compactCiphertextLen])
	}

	// Memos digest: encCiphertext[52:564]
	memos := blake2bNew256([]byte(OrchardActionsMemosPersonalization))
	for _, a := range ob.Actions {
		memos.Write(a.EncCiphertext[compactCiphertextLen:memoEnd])
	}

	// Noncompact digest: cv || rk || encCiphertext[564:] || outCiphertext
	noncompact := blake2bNew256([]byte(OrchardActionsNoncompactPersonalization))
	for _, a := range ob.Actions {
		noncompact.Write(a.CV[:])
		noncompact.Write(a.Rk[:])
		noncompact.Write(a.EncCiphertext[memoEnd:])
		noncompact.Write(a.OutCiphertext[:])
	}

	for _, d := range [][32]byte{sum256(compact), sum256(memos), sum256(noncompact)} {
		h.Write(d[:])
	}

	// flags || value_balance || anchor
	h.Write([]byte{ob.Flags})
	putUint64(h, uint64(ob.ValueBalance))
	h.Write(ob.Anchor[:])

	return sum256(h)
}

// txHashPersonalization is "ZcashTxHash_" followed by the little-endian
// consensus branch id.
func txHashPersonalization(branchID uint32) []byte {
	personalization := make([]byte, 16)
	copy(personalization, Zip244HashPersonalization)
	binary.LittleEndian.PutUint32(personalization[12:], branchID)
	return personalization
}

// combine hashes the four component digests under the branch id
// personalization, with transparent standing in for T.2 or S.2.
func combine(tx *wire.Tx, d *TxDigests, transparent [32]byte) [32]byte {
	h := blake2bNew256(txHashPersonalization(tx.ConsensusBranchID))
	h.Write(d.HeaderDigest[:])
	h.Write(transparent[:])
	h.Write(d.SaplingDigest[:])
	h.Write(d.OrchardDigest[:])
	return sum256(h)
}

// ComputeTxIDV5 computes the ZIP 244 txid of a v5 transaction.
// TXID = BLAKE2b-256("ZcashTxHash_" || branch_id, header || transparent || sapling || orchard)
func ComputeTxIDV5(tx *wire.Tx) ([32]byte, error) {
	digests, err := ComputeTxDigests(tx)
	if err != nil {
		return [32]byte{}, err
	}
	return combine(tx, digests, digests.TransparentDigest), nil
}

// PrevOut describes the transparent output spent by an input. Signature
// hashes commit to the amount and script of every spent output.
type PrevOut struct {
	Value        int64
	ScriptPubKey []byte
}

// GetSignatureHash computes the ZIP 244 signature hash for the transparent
// input at inputIndex. prevOuts must hold the spent output of every input,
// in input order.
func GetSignatureHash(tx *wire.Tx, prevOuts []PrevOut, inputIndex uint32,
	sighashType uint8) ([32]byte, error) {

	if int(inputIndex) >= len(tx.TxIn) {
		return [32]byte{}, fmt.Errorf("%w: %d of %d", ErrInputIndex,
			inputIndex, len(tx.TxIn))
	}
	if len(prevOuts) != len(tx.TxIn) {
		return [32]byte{}, fmt.Errorf("%d spent outputs for %d inputs",
			len(prevOuts), len(tx.TxIn))
	}

	digests, err := ComputeTxDigests(tx)
	if err != nil {
		return [32]byte{}, err
	}

	sigDigest := computeTransparentSigDigest(tx, prevOuts, int(inputIndex), sighashType)
	return combine(tx, digests, sigDigest), nil
}

// GetShieldedSignatureHash computes the signature hash signed by Sapling
// spends, Orchard actions and binding signatures. prevOuts may be nil when
// the transaction has no transparent inputs or is a coinbase.
func GetShieldedSignatureHash(tx *wire.Tx, prevOuts []PrevOut) ([32]byte, error) {
	digests, err := ComputeTxDigests(tx)
	if err != nil {
		return [32]byte{}, err
	}

	// If coinbase or no transparent inputs, S.2 is the transparent_digest
	// (T.2).
	if len(tx.TxIn) == 0 || tx.IsCoinBase() {
		return combine(tx, digests, digests.TransparentDigest), nil
	}
	if len(prevOuts) != len(tx.TxIn) {
		return [32]byte{}, fmt.Errorf("%d spent outputs for %d inputs",
			len(prevOuts), len(tx.TxIn))
	}

	sigDigest := computeTransparentSigDigest(tx, prevOuts, -1, SighashAll)
	return combine(tx, digests, sigDigest), nil
}

// computeTransparentSigDigest computes S.2 based on sighash type. A negative
// inputIndex selects the shielded form, whose txin digest is empty.
//
// Structure:
//
//	hash_type ||
//	prevouts_sig_digest ||
//	amounts_sig_digest ||
//	scriptpubkeys_sig_digest ||
//	sequence_sig_digest ||
//	outputs_sig_digest ||
//	txin_sig_digest
func computeTransparentSigDigest(tx *wire.Tx, prevOuts []PrevOut,
	inputIndex int, sighashType uint8) [32]byte {

	h := blake2bNew256([]byte(TransparentDigestPersonalization))

	anyoneCanPay := sighashType&SighashAnyoneCanPay != 0
	sigHashMask := sighashType & SighashMask

	// S.2a: hash_type (1 byte)
	h.Write([]byte{sighashType})

	// S.2b: prevouts_sig_digest
	prevoutsDigest := computePrevoutsDigest(tx.TxIn, anyoneCanPay)
	h.Write(prevoutsDigest[:])

	// S.2c: amounts_sig_digest
	amounts := blake2bNew256([]byte(AmountsDigestPersonalization))
	if !anyoneCanPay {
		for _, po := range prevOuts {
			putUint64(amounts, uint64(po.Value))
		}
	}
	amountsDigest := sum256(amounts)
	h.Write(amountsDigest[:])

	// S.2d: scriptpubkeys_sig_digest
	scripts := blake2bNew256([]byte(ScriptsDigestPersonalization))
	if !anyoneCanPay {
		for _, po := range prevOuts {
			_ = wire.WriteVarBytes(scripts, po.ScriptPubKey)
		}
	}
	scriptsDigest := sum256(scripts)
	h.Write(scriptsDigest[:])

	// S.2e: sequence_sig_digest
	sequenceDigest := computeSequenceDigest(tx.TxIn, anyoneCanPay)
	h.Write(sequenceDigest[:])

	// S.2f: outputs_sig_digest
	outputs := blake2bNew256([]byte(OutputsDigestPersonalization))
	switch sigHashMask {
	case SighashAll:
		for _, out := range tx.TxOut {
			writeTxOut(outputs, out)
		}
	case SighashSingle:
		// Only the output at inputIndex, if it exists.
		if inputIndex >= 0 && inputIndex < len(tx.TxOut) {
			writeTxOut(outputs, tx.TxOut[inputIndex])
		}
	}
	outputsDigest := sum256(outputs)
	h.Write(outputsDigest[:])

	// S.2g: txin_sig_digest
	txin := blake2bNew256([]byte(TxInDigestPersonalization))
	if inputIndex >= 0 {
		in := tx.TxIn[inputIndex]
		txin.Write(in.PreviousOutPoint.Hash[:])
		putUint32(txin, in.PreviousOutPoint.Index)
		putUint64(txin, uint64(prevOuts[inputIndex].Value))
		_ = wire.WriteVarBytes(txin, prevOuts[inputIndex].ScriptPubKey)
		putUint32(txin, in.Sequence)
	}
	txinDigest := sum256(txin)
	h.Write(txinDigest[:])

	return sum256(h)
}

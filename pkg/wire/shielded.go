package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Shielded component sizes.
const (
	// Groth16ProofSize is the size of Sapling and post-Sapling Sprout
	// proofs.
	Groth16ProofSize = 192

	// BCTV14ProofSize is the size of pre-Sapling Sprout proofs.
	BCTV14ProofSize = 296

	// SproutCiphertextSize is the size of one JoinSplit note ciphertext.
	SproutCiphertextSize = 601

	// EncCiphertextSize is the size of a Sapling or Orchard note ciphertext.
	EncCiphertextSize = 580

	// OutCiphertextSize is the size of a Sapling or Orchard outgoing
	// ciphertext.
	OutCiphertextSize = 80

	// minJoinSplitLen is a JoinSplit with a Groth16 proof.
	minJoinSplitLen = 8 + 8 + 32 + 2*32 + 2*32 + 32 + 32 + 2*32 +
		Groth16ProofSize + 2*SproutCiphertextSize

	// saplingSpendV4Len is cv, anchor, nullifier, rk, proof and signature.
	saplingSpendV4Len = 4*32 + Groth16ProofSize + 64

	// saplingOutputV4Len is cv, cmu, epk, both ciphertexts and proof.
	saplingOutputV4Len = 3*32 + EncCiphertextSize + OutCiphertextSize +
		Groth16ProofSize

	// saplingSpendV5Len is the compact v5 spend: cv, nullifier, rk.
	saplingSpendV5Len = 3 * 32

	// saplingOutputV5Len is the compact v5 output without its proof.
	saplingOutputV5Len = 3*32 + EncCiphertextSize + OutCiphertextSize

	// orchardActionLen is cv, nullifier, rk, cmx, epk and both ciphertexts.
	orchardActionLen = 5*32 + EncCiphertextSize + OutCiphertextSize
)

// JoinSplit is a Sprout JoinSplit description.
//
// Proof holds BCTV14ProofSize bytes in v2 and v3 transactions and
// Groth16ProofSize bytes in v4 transactions.
type JoinSplit struct {
	VPubOld      uint64
	VPubNew      uint64
	Anchor       chainhash.Hash
	Nullifiers   [2][32]byte
	Commitments  [2][32]byte
	EphemeralKey [32]byte
	RandomSeed   [32]byte
	Macs         [2][32]byte
	Proof        []byte
	Ciphertexts  [2][SproutCiphertextSize]byte
}

// SaplingSpend is a Sapling spend description. Anchor is only serialized
// per spend in v4 transactions.
type SaplingSpend struct {
	CV           [32]byte
	Anchor       chainhash.Hash
	Nullifier    [32]byte
	Rk           [32]byte
	Proof        [Groth16ProofSize]byte
	SpendAuthSig [64]byte
}

// SaplingOutput is a Sapling output description.
type SaplingOutput struct {
	CV            [32]byte
	Cmu           [32]byte
	EphemeralKey  [32]byte
	EncCiphertext [EncCiphertextSize]byte
	OutCiphertext [OutCiphertextSize]byte
	Proof         [Groth16ProofSize]byte
}

// OrchardAction is an Orchard action description together with its spend
// authorization signature.
type OrchardAction struct {
	CV            [32]byte
	Nullifier     [32]byte
	Rk            [32]byte
	Cmx           [32]byte
	EphemeralKey  [32]byte
	EncCiphertext [EncCiphertextSize]byte
	OutCiphertext [OutCiphertextSize]byte
	SpendAuthSig  [64]byte
}

// OrchardBundle is the Orchard part of a v5 transaction.
type OrchardBundle struct {
	Actions      []*OrchardAction
	Flags        uint8
	ValueBalance int64
	Anchor       chainhash.Hash
	Proof        []byte
	BindingSig   [64]byte
}

// fixedField pairs a field name with the byte slice it is read into or
// written from.
type fixedField struct {
	name string
	buf  []byte
}

func readFixedFields(r io.Reader, fields ...fixedField) error {
	for _, f := range fields {
		if err := ReadFixedBytes(r, f.buf); err != nil {
			return readErr(f.name, err)
		}
	}
	return nil
}

func writeFixedFields(w io.Writer, fields ...fixedField) error {
	for _, f := range fields {
		if err := WriteFixedBytes(w, f.buf); err != nil {
			return writeErr(f.name, err)
		}
	}
	return nil
}

// headFields lists the JoinSplit members that follow the two value fields, in
// wire order. proof is skipped here since its size depends on the format.
func (js *JoinSplit) headFields() []fixedField {
	return []fixedField{
		{"anchor", js.Anchor[:]},
		{"nullifiers[0]", js.Nullifiers[0][:]},
		{"nullifiers[1]", js.Nullifiers[1][:]},
		{"commitments[0]", js.Commitments[0][:]},
		{"commitments[1]", js.Commitments[1][:]},
		{"ephemeral_key", js.EphemeralKey[:]},
		{"random_seed", js.RandomSeed[:]},
		{"macs[0]", js.Macs[0][:]},
		{"macs[1]", js.Macs[1][:]},
	}
}

func (js *JoinSplit) decode(r io.Reader, groth bool) error {
	var err error
	if js.VPubOld, err = binarySerializer.Uint64(r, littleEndian); err != nil {
		return readErr("vpub_old", err)
	}
	if js.VPubNew, err = binarySerializer.Uint64(r, littleEndian); err != nil {
		return readErr("vpub_new", err)
	}
	if err := readFixedFields(r, js.headFields()...); err != nil {
		return err
	}

	proofSize := BCTV14ProofSize
	if groth {
		proofSize = Groth16ProofSize
	}
	js.Proof = make([]byte, proofSize)

	return readFixedFields(r,
		fixedField{"proof", js.Proof},
		fixedField{"ciphertexts[0]", js.Ciphertexts[0][:]},
		fixedField{"ciphertexts[1]", js.Ciphertexts[1][:]},
	)
}

func (js *JoinSplit) encode(w io.Writer) error {
	if err := binarySerializer.PutUint64(w, littleEndian, js.VPubOld); err != nil {
		return writeErr("vpub_old", err)
	}
	if err := binarySerializer.PutUint64(w, littleEndian, js.VPubNew); err != nil {
		return writeErr("vpub_new", err)
	}
	if err := writeFixedFields(w, js.headFields()...); err != nil {
		return err
	}
	return writeFixedFields(w,
		fixedField{"proof", js.Proof},
		fixedField{"ciphertexts[0]", js.Ciphertexts[0][:]},
		fixedField{"ciphertexts[1]", js.Ciphertexts[1][:]},
	)
}

// encodeJoinSplits writes the JoinSplit vector and, when it is not empty,
// the JoinSplit public key and signature.
func (tx *Tx) encodeJoinSplits(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(tx.JoinSplits))); err != nil {
		return writeErr("joinsplit_count", err)
	}
	for i, js := range tx.JoinSplits {
		if err := js.encode(w); err != nil {
			return writeErr(fmt.Sprintf("joinsplit[%d]", i), err)
		}
	}
	if len(tx.JoinSplits) == 0 {
		return nil
	}
	return writeFixedFields(w,
		fixedField{"joinsplit_pubkey", tx.JoinSplitPubKey[:]},
		fixedField{"joinsplit_sig", tx.JoinSplitSig[:]},
	)
}

// decodeJoinSplits reads the JoinSplit vector and its trailing key and
// signature. groth selects Groth16 proofs (v4) over BCTV14 (v2, v3).
func (tx *Tx) decodeJoinSplits(r io.Reader, groth bool) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("joinsplit_count", err)
	}
	tx.JoinSplits = make([]*JoinSplit, 0, preallocCap(r, count, minJoinSplitLen))
	for i := uint64(0); i < count; i++ {
		js := new(JoinSplit)
		if err := js.decode(r, groth); err != nil {
			return readErr(fmt.Sprintf("joinsplit[%d]", i), err)
		}
		tx.JoinSplits = append(tx.JoinSplits, js)
	}
	if count == 0 {
		return nil
	}
	return readFixedFields(r,
		fixedField{"joinsplit_pubkey", tx.JoinSplitPubKey[:]},
		fixedField{"joinsplit_sig", tx.JoinSplitSig[:]},
	)
}

// v4 Sapling layout: value balance, spends with inline proofs and
// signatures, outputs with inline proofs. The binding signature follows the
// JoinSplits and is handled by the caller.

func (sp *SaplingSpend) v4Fields() []fixedField {
	return []fixedField{
		{"cv", sp.CV[:]},
		{"anchor", sp.Anchor[:]},
		{"nullifier", sp.Nullifier[:]},
		{"rk", sp.Rk[:]},
		{"proof", sp.Proof[:]},
		{"spend_auth_sig", sp.SpendAuthSig[:]},
	}
}

func (out *SaplingOutput) v4Fields() []fixedField {
	return []fixedField{
		{"cv", out.CV[:]},
		{"cmu", out.Cmu[:]},
		{"ephemeral_key", out.EphemeralKey[:]},
		{"enc_ciphertext", out.EncCiphertext[:]},
		{"out_ciphertext", out.OutCiphertext[:]},
		{"proof", out.Proof[:]},
	}
}

func (tx *Tx) encodeSaplingV4(w io.Writer) error {
	if err := binarySerializer.PutUint64(w, littleEndian, uint64(tx.ValueBalanceSapling)); err != nil {
		return writeErr("value_balance_sapling", err)
	}

	if err := WriteVarInt(w, uint64(len(tx.SaplingSpends))); err != nil {
		return writeErr("sapling_spend_count", err)
	}
	for i, sp := range tx.SaplingSpends {
		if err := writeFixedFields(w, sp.v4Fields()...); err != nil {
			return writeErr(fmt.Sprintf("sapling_spend[%d]", i), err)
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.SaplingOutputs))); err != nil {
		return writeErr("sapling_output_count", err)
	}
	for i, out := range tx.SaplingOutputs {
		if err := writeFixedFields(w, out.v4Fields()...); err != nil {
			return writeErr(fmt.Sprintf("sapling_output[%d]", i), err)
		}
	}
	return nil
}

func (tx *Tx) decodeSaplingV4(r io.Reader) error {
	vb, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("value_balance_sapling", err)
	}
	tx.ValueBalanceSapling = int64(vb)

	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("sapling_spend_count", err)
	}
	tx.SaplingSpends = make([]*SaplingSpend, 0, preallocCap(r, count, saplingSpendV4Len))
	for i := uint64(0); i < count; i++ {
		sp := new(SaplingSpend)
		if err := readFixedFields(r, sp.v4Fields()...); err != nil {
			return readErr(fmt.Sprintf("sapling_spend[%d]", i), err)
		}
		tx.SaplingSpends = append(tx.SaplingSpends, sp)
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return readErr("sapling_output_count", err)
	}
	tx.SaplingOutputs = make([]*SaplingOutput, 0, preallocCap(r, count, saplingOutputV4Len))
	for i := uint64(0); i < count; i++ {
		out := new(SaplingOutput)
		if err := readFixedFields(r, out.v4Fields()...); err != nil {
			return readErr(fmt.Sprintf("sapling_output[%d]", i), err)
		}
		tx.SaplingOutputs = append(tx.SaplingOutputs, out)
	}
	return nil
}

// v5 Sapling layout (ZIP 225): compact descriptions first, then the value
// balance and shared anchor, then proofs and signatures in separate runs.

func (sp *SaplingSpend) v5Fields() []fixedField {
	return []fixedField{
		{"cv", sp.CV[:]},
		{"nullifier", sp.Nullifier[:]},
		{"rk", sp.Rk[:]},
	}
}

func (out *SaplingOutput) v5Fields() []fixedField {
	return []fixedField{
		{"cv", out.CV[:]},
		{"cmu", out.Cmu[:]},
		{"ephemeral_key", out.EphemeralKey[:]},
		{"enc_ciphertext", out.EncCiphertext[:]},
		{"out_ciphertext", out.OutCiphertext[:]},
	}
}

func (tx *Tx) encodeSaplingV5(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(tx.SaplingSpends))); err != nil {
		return writeErr("sapling_spend_count", err)
	}
	for i, sp := range tx.SaplingSpends {
		if err := writeFixedFields(w, sp.v5Fields()...); err != nil {
			return writeErr(fmt.Sprintf("sapling_spend[%d]", i), err)
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.SaplingOutputs))); err != nil {
		return writeErr("sapling_output_count", err)
	}
	for i, out := range tx.SaplingOutputs {
		if err := writeFixedFields(w, out.v5Fields()...); err != nil {
			return writeErr(fmt.Sprintf("sapling_output[%d]", i), err)
		}
	}

	if !tx.HasSapling() {
		return nil
	}

	if err := binarySerializer.PutUint64(w, littleEndian, uint64(tx.ValueBalanceSapling)); err != nil {
		return writeErr("value_balance_sapling", err)
	}
	if len(tx.SaplingSpends) > 0 {
		if err := writeHash(w, &tx.SaplingAnchor); err != nil {
			return writeErr("sapling_anchor", err)
		}
	}
	for i, sp := range tx.SaplingSpends {
		if err := WriteFixedBytes(w, sp.Proof[:]); err != nil {
			return writeErr(fmt.Sprintf("sapling_spend[%d].proof", i), err)
		}
	}
	for i, sp := range tx.SaplingSpends {
		if err := WriteFixedBytes(w, sp.SpendAuthSig[:]); err != nil {
			return writeErr(fmt.Sprintf("sapling_spend[%d].spend_auth_sig", i), err)
		}
	}
	for i, out := range tx.SaplingOutputs {
		if err := WriteFixedBytes(w, out.Proof[:]); err != nil {
			return writeErr(fmt.Sprintf("sapling_output[%d].proof", i), err)
		}
	}
	if err := WriteFixedBytes(w, tx.BindingSigSapling[:]); err != nil {
		return writeErr("binding_sig_sapling", err)
	}
	return nil
}

func (tx *Tx) decodeSaplingV5(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("sapling_spend_count", err)
	}
	tx.SaplingSpends = make([]*SaplingSpend, 0, preallocCap(r, count, saplingSpendV5Len))
	for i := uint64(0); i < count; i++ {
		sp := new(SaplingSpend)
		if err := readFixedFields(r, sp.v5Fields()...); err != nil {
			return readErr(fmt.Sprintf("sapling_spend[%d]", i), err)
		}
		tx.SaplingSpends = append(tx.SaplingSpends, sp)
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return readErr("sapling_output_count", err)
	}
	tx.SaplingOutputs = make([]*SaplingOutput, 0, preallocCap(r, count, saplingOutputV5Len))
	for i := uint64(0); i < count; i++ {
		out := new(SaplingOutput)
		if err := readFixedFields(r, out.v5Fields()...); err != nil {
			return readErr(fmt.Sprintf("sapling_output[%d]", i), err)
		}
		tx.SaplingOutputs = append(tx.SaplingOutputs, out)
	}

	if !tx.HasSapling() {
		return nil
	}

	vb, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("value_balance_sapling", err)
	}
	tx.ValueBalanceSapling = int64(vb)

	if len(tx.SaplingSpends) > 0 {
		if err := readHash(r, &tx.SaplingAnchor); err != nil {
			return readErr("sapling_anchor", err)
		}
	}
	for i, sp := range tx.SaplingSpends {
		if err := ReadFixedBytes(r, sp.Proof[:]); err != nil {
			return readErr(fmt.Sprintf("sapling_spend[%d].proof", i), err)
		}
	}
	for i, sp := range tx.SaplingSpends {
		if err := ReadFixedBytes(r, sp.SpendAuthSig[:]); err != nil {
			return readErr(fmt.Sprintf("sapling_spend[%d].spend_auth_sig", i), err)
		}
	}
	for i, out := range tx.SaplingOutputs {
		if err := ReadFixedBytes(r, out.Proof[:]); err != nil {
			return readErr(fmt.Sprintf("sapling_output[%d].proof", i), err)
		}
	}
	if err := ReadFixedBytes(r, tx.BindingSigSapling[:]); err != nil {
		return readErr("binding_sig_sapling", err)
	}
	return nil
}

// Orchard layout (ZIP 225): actions, then flags, value balance, anchor,
// the aggregated proof, one signature per action and the binding signature.

func (a *OrchardAction) fields() []fixedField {
	return []fixedField{
		{"cv", a.CV[:]},
		{"nullifier", a.Nullifier[:]},
		{"rk", a.Rk[:]},
		{"cmx", a.Cmx[:]},
		{"ephemeral_key", a.EphemeralKey[:]},
		{"enc_ciphertext", a.EncCiphertext[:]},
		{"out_ciphertext", a.OutCiphertext[:]},
	}
}

func (tx *Tx) encodeOrchard(w io.Writer) error {
	ob := tx.Orchard
	if ob == nil || len(ob.Actions) == 0 {
		if err := WriteVarInt(w, 0); err != nil {
			return writeErr("orchard_action_count", err)
		}
		return nil
	}

	if err := WriteVarInt(w, uint64(len(ob.Actions))); err != nil {
		return writeErr("orchard_action_count", err)
	}
	for i, a := range ob.Actions {
		if err := writeFixedFields(w, a.fields()...); err != nil {
			return writeErr(fmt.Sprintf("orchard_action[%d]", i), err)
		}
	}

	if err := binarySerializer.PutUint8(w, ob.Flags); err != nil {
		return writeErr("orchard_flags", err)
	}
	if err := binarySerializer.PutUint64(w, littleEndian, uint64(ob.ValueBalance)); err != nil {
		return writeErr("value_balance_orchard", err)
	}
	if err := writeHash(w, &ob.Anchor); err != nil {
		return writeErr("orchard_anchor", err)
	}
	if err := WriteVarBytes(w, ob.Proof); err != nil {
		return writeErr("orchard_proof", err)
	}
	for i, a := range ob.Actions {
		if err := WriteFixedBytes(w, a.SpendAuthSig[:]); err != nil {
			return writeErr(fmt.Sprintf("orchard_action[%d].spend_auth_sig", i), err)
		}
	}
	if err := WriteFixedBytes(w, ob.BindingSig[:]); err != nil {
		return writeErr("binding_sig_orchard", err)
	}
	return nil
}

func (tx *Tx) decodeOrchard(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("orchard_action_count", err)
	}
	if count == 0 {
		tx.Orchard = nil
		return nil
	}

	ob := &OrchardBundle{
		Actions: make([]*OrchardAction, 0, preallocCap(r, count, orchardActionLen)),
	}
	for i := uint64(0); i < count; i++ {
		a := new(OrchardAction)
		if err := readFixedFields(r, a.fields()...); err != nil {
			return readErr(fmt.Sprintf("orchard_action[%d]", i), err)
		}
		ob.Actions = append(ob.Actions, a)
	}

	if ob.Flags, err = binarySerializer.Uint8(r); err != nil {
		return readErr("orchard_flags", err)
	}
	vb, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("value_balance_orchard", err)
	}
	ob.ValueBalance = int64(vb)

	if err := readHash(r, &ob.Anchor); err != nil {
		return readErr("orchard_anchor", err)
	}
	if ob.Proof, err = ReadVarBytes(r, MaxBlockPayload, "orchard_proof"); err != nil {
		return readErr("orchard_proof", err)
	}
	for i, a := range ob.Actions {
		if err := ReadFixedBytes(r, a.SpendAuthSig[:]); err != nil {
			return readErr(fmt.Sprintf("orchard_action[%d].spend_auth_sig", i), err)
		}
	}
	if err := ReadFixedBytes(r, ob.BindingSig[:]); err != nil {
		return readErr("binding_sig_orchard", err)
	}

	tx.Orchard = ob
	return nil
}

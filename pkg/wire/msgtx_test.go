package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coinbaseIn() *TxIn {
	return &TxIn{
		PreviousOutPoint: OutPoint{Index: MaxPrevOutIndex},
		SignatureScript:  []byte{0x03, 0x01, 0x02, 0x03},
		Sequence:         0xffffffff,
	}
}

func spendIn(seed byte) *TxIn {
	in := &TxIn{
		PreviousOutPoint: OutPoint{Index: uint32(seed)},
		SignatureScript:  bytes.Repeat([]byte{seed}, 10),
		Sequence:         0xfffffffe,
	}
	for i := range in.PreviousOutPoint.Hash {
		in.PreviousOutPoint.Hash[i] = seed + byte(i)
	}
	return in
}

func p2pkhOut(value int64) *TxOut {
	script := append([]byte{0x76, 0xa9, 0x14}, make([]byte, 20)...)
	return &TxOut{Value: value, PkScript: append(script, 0x88, 0xac)}
}

func testJoinSplit(proofSize int) *JoinSplit {
	js := &JoinSplit{VPubOld: 5, VPubNew: 7, Proof: bytes.Repeat([]byte{0xbb}, proofSize)}
	js.Anchor[0] = 0x01
	js.Nullifiers[1][0] = 0x02
	js.Ciphertexts[0][600] = 0x03
	return js
}

// encodeTx serializes tx and checks that decoding and encoding again gives
// the same bytes.
func encodeTx(t *testing.T, tx *Tx) ([]byte, *Tx) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf))
	raw := append([]byte(nil), buf.Bytes()...)

	got := new(Tx)
	r := bytes.NewReader(raw)
	require.NoError(t, got.Decode(r))
	require.Zero(t, r.Len())

	buf.Reset()
	require.NoError(t, got.Encode(&buf))
	require.Equal(t, raw, buf.Bytes())
	return raw, got
}

func TestTxV1(t *testing.T) {
	tx := &Tx{
		Version:  1,
		TxIn:     []*TxIn{coinbaseIn()},
		TxOut:    []*TxOut{p2pkhOut(1250000000)},
		LockTime: 0,
	}
	require.Equal(t, TxFormatV1, tx.Format())
	require.True(t, tx.IsCoinBase())

	raw, got := encodeTx(t, tx)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 0x01}, raw[:5])
	assert.Len(t, raw, 4+1+minTxInLen+4+1+8+1+25+4)
	assert.Equal(t, tx, got)
}

func TestTxSprout(t *testing.T) {
	tx := &Tx{
		Version:    2,
		TxIn:       []*TxIn{},
		TxOut:      []*TxOut{},
		JoinSplits: []*JoinSplit{testJoinSplit(BCTV14ProofSize)},
	}
	tx.JoinSplitPubKey[0] = 0xaa
	tx.JoinSplitSig[63] = 0xcc
	require.Equal(t, TxFormatSprout, tx.Format())

	raw, got := encodeTx(t, tx)
	assert.Len(t, raw, 4+1+1+4+1+1802+32+64)
	assert.Equal(t, tx, got)
}

func TestTxSproutWithoutJoinSplits(t *testing.T) {
	tx := &Tx{Version: 2, TxIn: []*TxIn{spendIn(1)}, TxOut: []*TxOut{}}

	raw, got := encodeTx(t, tx)
	assert.Equal(t, byte(0x00), raw[len(raw)-1], "joinsplit count")
	assert.Empty(t, got.JoinSplits)
	assert.Equal(t, [32]byte{}, got.JoinSplitPubKey)
}

func TestTxOverwinter(t *testing.T) {
	tx := &Tx{
		Overwintered:   true,
		Version:        3,
		VersionGroupID: OverwinterVersionGroupID,
		TxIn:           []*TxIn{spendIn(2)},
		TxOut:          []*TxOut{p2pkhOut(1000)},
		LockTime:       500,
		ExpiryHeight:   207520,
		JoinSplits:     []*JoinSplit{},
	}
	require.Equal(t, TxFormatOverwinter, tx.Format())
	assert.Equal(t, uint32(0x80000003), tx.Header())

	raw, got := encodeTx(t, tx)
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x80, 0x70, 0x82, 0xc4, 0x03}, raw[:8])
	assert.Equal(t, tx, got)
}

func TestTxSapling(t *testing.T) {
	spend := &SaplingSpend{}
	spend.CV[0] = 0x11
	spend.Anchor[31] = 0x12
	spend.Proof[191] = 0x13
	spend.SpendAuthSig[0] = 0x14

	output := &SaplingOutput{}
	output.Cmu[0] = 0x21
	output.EncCiphertext[579] = 0x22
	output.Proof[0] = 0x23

	tx := &Tx{
		Overwintered:        true,
		Version:             4,
		VersionGroupID:      SaplingVersionGroupID,
		TxIn:                []*TxIn{},
		TxOut:               []*TxOut{},
		ExpiryHeight:        280020,
		ValueBalanceSapling: -1000,
		SaplingSpends:       []*SaplingSpend{spend},
		SaplingOutputs:      []*SaplingOutput{output},
		JoinSplits:          []*JoinSplit{},
	}
	tx.BindingSigSapling[0] = 0x99
	require.Equal(t, TxFormatSapling, tx.Format())

	raw, got := encodeTx(t, tx)
	assert.Len(t, raw, 1425)
	assert.Equal(t, byte(0x99), raw[len(raw)-64])
	assert.Equal(t, tx, got)
}

// Without spends or outputs a v4 transaction still carries its value balance
// but no binding signature.
func TestTxSaplingEmptyBundle(t *testing.T) {
	tx := &Tx{
		Overwintered:   true,
		Version:        4,
		VersionGroupID: SaplingVersionGroupID,
		TxIn:           []*TxIn{},
		TxOut:          []*TxOut{},
	}
	tx.BindingSigSapling[0] = 0x99

	raw, got := encodeTx(t, tx)
	assert.Len(t, raw, 29)
	assert.Equal(t, [64]byte{}, got.BindingSigSapling)
}

func TestTxSaplingGrothJoinSplit(t *testing.T) {
	tx := &Tx{
		Overwintered:   true,
		Version:        4,
		VersionGroupID: SaplingVersionGroupID,
		TxIn:           []*TxIn{},
		TxOut:          []*TxOut{},
		SaplingSpends:  []*SaplingSpend{},
		SaplingOutputs: []*SaplingOutput{},
		JoinSplits:     []*JoinSplit{testJoinSplit(Groth16ProofSize)},
	}

	raw, got := encodeTx(t, tx)
	assert.Len(t, raw, 29+minJoinSplitLen+32+64)
	assert.Len(t, got.JoinSplits[0].Proof, Groth16ProofSize)
}

func TestTxNU5(t *testing.T) {
	action := &OrchardAction{}
	action.Nullifier[0] = 0x31
	action.SpendAuthSig[63] = 0x32

	tx := &Tx{
		Overwintered:      true,
		Version:           5,
		VersionGroupID:    NU5VersionGroupID,
		ConsensusBranchID: 0xc2d6d0b4,
		TxIn:              []*TxIn{},
		TxOut:             []*TxOut{},
		ExpiryHeight:      1028520,
		SaplingSpends:     []*SaplingSpend{},
		SaplingOutputs:    []*SaplingOutput{},
		Orchard: &OrchardBundle{
			Actions:      []*OrchardAction{action},
			Flags:        0x03,
			ValueBalance: 5000,
			Proof:        bytes.Repeat([]byte{0x44}, 10),
		},
	}
	tx.Orchard.BindingSig[0] = 0x55
	require.Equal(t, TxFormatNU5, tx.Format())

	raw, got := encodeTx(t, tx)
	assert.Len(t, raw, 1025)
	assert.Equal(t, []byte{0xb4, 0xd0, 0xd6, 0xc2}, raw[8:12])
	assert.Equal(t, tx, got)
}

func TestTxNU5Sapling(t *testing.T) {
	spend := &SaplingSpend{}
	spend.Nullifier[0] = 0x01
	spend.Proof[0] = 0x02

	tx := &Tx{
		Overwintered:        true,
		Version:             5,
		VersionGroupID:      NU5VersionGroupID,
		ConsensusBranchID:   0xc2d6d0b4,
		TxIn:                []*TxIn{spendIn(3)},
		TxOut:               []*TxOut{p2pkhOut(10)},
		ValueBalanceSapling: 100,
		SaplingSpends:       []*SaplingSpend{spend},
		SaplingOutputs:      []*SaplingOutput{},
	}
	tx.SaplingAnchor[0] = 0x77

	_, got := encodeTx(t, tx)
	assert.Nil(t, got.Orchard)
	assert.Equal(t, tx.SaplingAnchor, got.SaplingAnchor)
	assert.Equal(t, spend.Proof, got.SaplingSpends[0].Proof)
}

func TestTxUnknownFormat(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"version zero", []byte{0x00, 0x00, 0x00, 0x00}},
		{"overwintered v2", []byte{0x02, 0x00, 0x00, 0x80, 0x70, 0x82, 0xc4, 0x03}},
		{"v4 with overwinter group", []byte{0x04, 0x00, 0x00, 0x80, 0x70, 0x82, 0xc4, 0x03}},
		{"v6", []byte{0x06, 0x00, 0x00, 0x80, 0x0a, 0x27, 0xa7, 0x26}},
	}

	for _, test := range tests {
		var tx Tx
		err := tx.Decode(bytes.NewReader(test.raw))
		require.ErrorIs(t, err, ErrInvalidData, test.name)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "header", de.Field, test.name)
	}

	err := (&Tx{Version: 0}).Encode(io.Discard)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestTxFieldPaths(t *testing.T) {
	block := NewBlock(testHeader())
	block.AddTransaction(&Tx{Version: 1, TxIn: []*TxIn{coinbaseIn()}, TxOut: []*TxOut{p2pkhOut(1)}})
	block.AddTransaction(&Tx{Version: 1, TxIn: []*TxIn{spendIn(9)}, TxOut: []*TxOut{}})

	var buf bytes.Buffer
	require.NoError(t, block.Encode(&buf))
	raw := buf.Bytes()

	// Cut inside the second transaction's signature script. The script is
	// the last 10+5 bytes before sequence, vout count and lock time.
	cut := len(raw) - 4 - 1 - 4 - 5

	var got Block
	err := got.Decode(bytes.NewReader(raw[:cut]))
	require.ErrorIs(t, err, ErrInvalidData)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tx[1].vin[0].script_sig", de.Field)

	// Without a sized cursor the same cut is reported as a short read.
	err = got.Decode(io.MultiReader(bytes.NewReader(raw[:cut])))
	require.ErrorIs(t, err, ErrUnexpectedEOF)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tx[1].vin[0].script_sig", de.Field)

	// One byte short of the end.
	err = got.Decode(bytes.NewReader(raw[:len(raw)-1]))
	require.ErrorIs(t, err, ErrUnexpectedEOF)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tx[1].lock_time", de.Field)
}

func TestTxIsCoinBase(t *testing.T) {
	assert.True(t, (&Tx{TxIn: []*TxIn{coinbaseIn()}}).IsCoinBase())
	assert.False(t, (&Tx{TxIn: []*TxIn{spendIn(1)}}).IsCoinBase())
	assert.False(t, (&Tx{TxIn: []*TxIn{coinbaseIn(), coinbaseIn()}}).IsCoinBase())
	assert.False(t, (&Tx{}).IsCoinBase())

	in := coinbaseIn()
	in.PreviousOutPoint.Hash = chainhash.Hash{0x01}
	assert.False(t, (&Tx{TxIn: []*TxIn{in}}).IsCoinBase())
}

func TestTxFormatString(t *testing.T) {
	assert.Equal(t, "v1", TxFormatV1.String())
	assert.Equal(t, "sprout", TxFormatSprout.String())
	assert.Equal(t, "overwinter", TxFormatOverwinter.String())
	assert.Equal(t, "sapling", TxFormatSapling.String())
	assert.Equal(t, "nu5", TxFormatNU5.String())
	assert.Equal(t, "unknown", TxFormatUnknown.String())
}

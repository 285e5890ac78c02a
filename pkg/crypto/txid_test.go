package crypto

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/zcash-wire/pkg/wire"
)

func loadBlock(t *testing.T, name string) *wire.Block {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(getTestDataPath("blocks"), name+".hex"))
	require.NoError(t, err)

	raw := hexDecode(t, strings.TrimSpace(string(data)))

	var block wire.Block
	require.NoError(t, block.Decode(bytes.NewReader(raw)))
	return &block
}

func TestTxIDs(t *testing.T) {
	blocks := make(map[string]*wire.Block)

	for _, row := range loadRows(t, "txids.json") {
		name := row[0].(string)
		index := int(row[1].(float64))
		want := row[2].(string)

		block, ok := blocks[name]
		if !ok {
			block = loadBlock(t, name)
			blocks[name] = block
		}
		require.Less(t, index, len(block.Transactions), name)

		got, err := TxID(block.Transactions[index])
		require.NoError(t, err)
		assert.Equal(t, want, got.String(), "%s tx %d (%v)", name, index,
			block.Transactions[index].Format())
	}
}

func TestTxIDsOfBlock(t *testing.T) {
	block := loadBlock(t, "synthetic-nu5")

	ids, err := TxIDs(block)
	require.NoError(t, err)
	require.Len(t, ids, len(block.Transactions))

	for i, tx := range block.Transactions {
		id, err := TxID(tx)
		require.NoError(t, err)
		assert.Equal(t, id, ids[i])
	}
}

func TestTxIDUnknownFormat(t *testing.T) {
	_, err := TxID(&wire.Tx{Overwintered: true, Version: 9})
	assert.ErrorIs(t, err, wire.ErrInvalidData)
}

func TestTxIDPreV5IsDoubleSHA256(t *testing.T) {
	tx := &wire.Tx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
			SignatureScript:  []byte{0x01, 0x02},
			Sequence:         0xffffffff,
		}},
		TxOut: []*wire.TxOut{{Value: 5000, PkScript: []byte{0x51}}},
	}

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf))

	id, err := TxID(tx)
	require.NoError(t, err)

	// Recompute by hand: the id is in wire order, String() reverses it.
	want := chainhash.DoubleHashB(buf.Bytes())
	assert.Equal(t, hex.EncodeToString(want), hex.EncodeToString(id[:]))
}

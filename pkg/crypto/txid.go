package crypto

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/suffix-labs/zcash-wire/pkg/wire"
)

// TxID returns the identifier of tx in wire byte order.
//
// Transactions before v5 are identified by the double SHA-256 of their
// serialization. v5 transactions use the ZIP 244 digest tree, which leaves
// out signatures and proofs.
func TxID(tx *wire.Tx) (chainhash.Hash, error) {
	if tx.Format() == wire.TxFormatNU5 {
		id, err := ComputeTxIDV5(tx)
		if err != nil {
			return chainhash.Hash{}, err
		}
		return chainhash.Hash(id), nil
	}

	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(buf.Bytes()), nil
}

// TxIDs returns the identifier of every transaction in block, in order.
func TxIDs(block *wire.Block) ([]chainhash.Hash, error) {
	ids := make([]chainhash.Hash, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		id, err := TxID(tx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

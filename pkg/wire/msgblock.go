package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// minTxLen is the smallest possible transaction: a v1 header, two empty
// transparent vectors and a lock time.
const minTxLen = 4 + 1 + 1 + 4

// Block is the block payload: a header followed by its transactions.
type Block struct {
	Header       BlockHeader
	Transactions []*Tx
}

// NewBlock returns a block with the given header and no transactions.
func NewBlock(header *BlockHeader) *Block {
	return &Block{Header: *header}
}

// AddTransaction appends tx to the block and keeps Header.TxCount in step.
func (b *Block) AddTransaction(tx *Tx) {
	b.Transactions = append(b.Transactions, tx)
	b.Header.TxCount = uint64(len(b.Transactions))
}

// Encode writes the header and every transaction to w. The transaction count
// on the wire is always len(Transactions), whatever Header.TxCount holds.
func (b *Block) Encode(w io.Writer) error {
	if err := b.Header.EncodeWithoutTxCount(w); err != nil {
		return writeErr("header", err)
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return writeErr("header.tx_count", err)
	}
	for i, tx := range b.Transactions {
		if err := tx.Encode(w); err != nil {
			return writeErr(fmt.Sprintf("tx[%d]", i), err)
		}
	}
	return nil
}

// Decode reads a header and then exactly Header.TxCount transactions. Bytes
// after the last transaction are left unread.
func (b *Block) Decode(r io.Reader) error {
	var msg Block
	if err := msg.Header.Decode(r); err != nil {
		return readErr("header", err)
	}

	count := msg.Header.TxCount
	msg.Transactions = make([]*Tx, 0, preallocCap(r, count, minTxLen))
	for i := uint64(0); i < count; i++ {
		tx := new(Tx)
		if err := tx.Decode(r); err != nil {
			return readErr(fmt.Sprintf("tx[%d]", i), err)
		}
		msg.Transactions = append(msg.Transactions, tx)
	}

	*b = msg
	return nil
}

// BlockHash returns the identity hash of the block's header.
func (b *Block) BlockHash() chainhash.Hash {
	return b.Header.BlockHash()
}

// DoubleSHA256 is an alias for BlockHash.
func (b *Block) DoubleSHA256() chainhash.Hash {
	return b.Header.BlockHash()
}

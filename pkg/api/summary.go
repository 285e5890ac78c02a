package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/suffix-labs/zcash-wire/pkg/chaincfg"
	"github.com/suffix-labs/zcash-wire/pkg/crypto"
	"github.com/suffix-labs/zcash-wire/pkg/wire"
)

// BlockSummary is a flattened, human-oriented view of a decoded block.
type BlockSummary struct {
	Hash      chainhash.Hash
	PrevBlock chainhash.Hash
	Time      time.Time
	Size      int

	// Height is taken from the coinbase script and is only meaningful
	// when HeightKnown is set. Upgrade is the network upgrade active at
	// that height.
	Height      uint32
	HeightKnown bool
	Upgrade     chaincfg.Upgrade

	Transactions []*TxSummary
}

// TxSummary describes one transaction of a block.
type TxSummary struct {
	TxID     chainhash.Hash
	Format   wire.TxFormat
	Coinbase bool

	// Branch is the upgrade named by a v5 transaction's consensus branch
	// id, or "" for earlier formats and unknown ids.
	Branch string

	Inputs  []InputSummary
	Outputs []OutputSummary

	JoinSplits     int
	SaplingSpends  int
	SaplingOutputs int
	OrchardActions int
}

// InputSummary describes a transparent input.
type InputSummary struct {
	PrevOut wire.OutPoint

	// Address of the key that signed a P2PKH spend, or "".
	Address string
}

// OutputSummary describes a transparent output.
type OutputSummary struct {
	Value   int64
	Class   crypto.ScriptClass
	Address string
}

// SummarizeBlock computes the summary of block for the network params.
//
// Parameters:
//   - block: Decoded block
//   - params: Network the block belongs to, used for address prefixes and
//     upgrade heights
//
// Returns:
//   - Block summary
//   - Error if a transaction id cannot be computed
func SummarizeBlock(block *wire.Block, params *chaincfg.Params) (*BlockSummary, error) {
	raw, err := SerializePayload(block)
	if err != nil {
		return nil, err
	}

	s := &BlockSummary{
		Hash:         block.BlockHash(),
		PrevBlock:    block.Header.PrevBlock,
		Time:         time.Unix(int64(block.Header.Timestamp), 0).UTC(),
		Size:         len(raw),
		Transactions: make([]*TxSummary, 0, len(block.Transactions)),
	}

	if len(block.Transactions) > 0 && block.Transactions[0].IsCoinBase() {
		s.Height, s.HeightKnown = CoinbaseHeight(block.Transactions[0])
	}
	if s.HeightKnown {
		s.Upgrade = params.UpgradeAt(s.Height)
	}

	for i, tx := range block.Transactions {
		ts, err := SummarizeTx(tx, params)
		if err != nil {
			return nil, fmt.Errorf("tx[%d]: %w", i, err)
		}
		s.Transactions = append(s.Transactions, ts)
	}

	log.Debugf("Summarized block %v: %d txs, height known %v",
		s.Hash, len(s.Transactions), s.HeightKnown)

	return s, nil
}

// SummarizeTx computes the summary of a single transaction.
func SummarizeTx(tx *wire.Tx, params *chaincfg.Params) (*TxSummary, error) {
	id, err := crypto.TxID(tx)
	if err != nil {
		return nil, err
	}

	ts := &TxSummary{
		TxID:           id,
		Format:         tx.Format(),
		Coinbase:       tx.IsCoinBase(),
		Inputs:         make([]InputSummary, 0, len(tx.TxIn)),
		Outputs:        make([]OutputSummary, 0, len(tx.TxOut)),
		JoinSplits:     len(tx.JoinSplits),
		SaplingSpends:  len(tx.SaplingSpends),
		SaplingOutputs: len(tx.SaplingOutputs),
	}
	if tx.Orchard != nil {
		ts.OrchardActions = len(tx.Orchard.Actions)
	}
	if ts.Format == wire.TxFormatNU5 {
		if u, ok := chaincfg.UpgradeForBranchID(tx.ConsensusBranchID); ok {
			ts.Branch = u.String()
		}
	}

	for _, in := range tx.TxIn {
		is := InputSummary{PrevOut: in.PreviousOutPoint}
		if !ts.Coinbase {
			is.Address, _ = crypto.InputAddress(in.SignatureScript, params)
		}
		ts.Inputs = append(ts.Inputs, is)
	}
	for _, out := range tx.TxOut {
		class, addr := crypto.ExtractAddress(out.PkScript, params)
		ts.Outputs = append(ts.Outputs, OutputSummary{
			Value:   out.Value,
			Class:   class,
			Address: addr,
		})
	}

	return ts, nil
}

// CoinbaseHeight reads the block height a coinbase commits to at the start of
// its signature script (BIP 34). The height is either a small-integer opcode
// or a minimally encoded little-endian push of at most four bytes.
func CoinbaseHeight(tx *wire.Tx) (uint32, bool) {
	if !tx.IsCoinBase() {
		return 0, false
	}

	script := tx.TxIn[0].SignatureScript
	if len(script) == 0 {
		return 0, false
	}

	op := script[0]
	switch {
	case op == 0x00:
		return 0, true

	// OP_1 through OP_16.
	case op >= 0x51 && op <= 0x60:
		return uint32(op-0x50), true

	case op >= 0x01 && op <= 0x04 && len(script) > int(op):
		data := script[1 : 1+op]

		// A set sign bit would make the height negative.
		if data[len(data)-1]&0x80 != 0 {
			return 0, false
		}

		var height uint32
		for i := len(data) - 1; i >= 0; i-- {
			height = height<<8 | uint32(data[i])
		}
		return height, true
	}

	return 0, false
}

// String renders the summary as indented text.
func (s *BlockSummary) String() string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "block %v\n", s.Hash)
	fmt.Fprintf(&b, "  prev    %v\n", s.PrevBlock)
	fmt.Fprintf(&b, "  time    %v\n", s.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, "  size    %d\n", s.Size)
	if s.HeightKnown {
		fmt.Fprintf(&b, "  height  %d (%v)\n", s.Height, s.Upgrade)
	}
	fmt.Fprintf(&b, "  txs     %d\n", len(s.Transactions))

	for i, ts := range s.Transactions {
		fmt.Fprintf(&b, "  tx[%d] %v %v", i, ts.TxID, ts.Format)
		if ts.Branch != "" {
			fmt.Fprintf(&b, " branch=%s", ts.Branch)
		}
		if ts.Coinbase {
			b.WriteString(" coinbase")
		}
		b.WriteByte('\n')

		for j, in := range ts.Inputs {
			if ts.Coinbase {
				break
			}
			fmt.Fprintf(&b, "    vin[%d]  %v:%d %s\n", j, in.PrevOut.Hash,
				in.PrevOut.Index, in.Address)
		}
		for j, out := range ts.Outputs {
			fmt.Fprintf(&b, "    vout[%d] %d %v %s\n", j, out.Value,
				out.Class, out.Address)
		}
		if n := ts.JoinSplits; n > 0 {
			fmt.Fprintf(&b, "    joinsplits %d\n", n)
		}
		if ts.SaplingSpends+ts.SaplingOutputs > 0 {
			fmt.Fprintf(&b, "    sapling spends %d outputs %d\n",
				ts.SaplingSpends, ts.SaplingOutputs)
		}
		if n := ts.OrchardActions; n > 0 {
			fmt.Fprintf(&b, "    orchard actions %d\n", n)
		}
	}

	return b.String()
}

package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/suffix-labs/zcash-wire/pkg/chaincfg"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

// ScriptClass is the kind of a transparent output script.
type ScriptClass uint8

const (
	NonStandardTy ScriptClass = iota // None of the recognized forms.
	PubKeyHashTy                     // Pay to pubkey hash.
	ScriptHashTy                     // Pay to script hash.
)

// String returns the script class name.
func (c ScriptClass) String() string {
	switch c {
	case PubKeyHashTy:
		return "pubkeyhash"
	case ScriptHashTy:
		return "scripthash"
	default:
		return "nonstandard"
	}
}

// Script opcodes recognized by the address extractors.
const (
	opDup         = 0x76
	opHash160     = 0xa9
	opData20      = 0x14
	opEqual       = 0x87
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	opPushData1   = 0x4c
	opPushData2   = 0x4d
)

var (
	// ErrChecksumMismatch is returned when a decoded address fails its
	// checksum.
	ErrChecksumMismatch = errors.New("address checksum mismatch")

	// ErrUnknownPrefix is returned when an address prefix belongs to neither
	// address kind of the network.
	ErrUnknownPrefix = errors.New("unknown address prefix")
)

// Hash160 calculates RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	h := ripemd160.New()
	h.Write(chainhash.HashB(b))
	return h.Sum(nil)
}

// EncodeAddress renders a 20-byte hash as a base58check transparent address
// with the two-byte network prefix.
func EncodeAddress(hash160 []byte, prefix [2]byte) string {
	payload := make([]byte, 0, 2+len(hash160)+4)
	payload = append(payload, prefix[:]...)
	payload = append(payload, hash160...)

	checksum := chainhash.DoubleHashB(payload)[:4]
	return base58.Encode(append(payload, checksum...))
}

// DecodeAddress parses a transparent address for params and returns its
// class and 20-byte hash.
func DecodeAddress(addr string, params *chaincfg.Params) (ScriptClass, []byte, error) {
	decoded := base58.Decode(addr)
	if len(decoded) != 2+ripemd160.Size+4 {
		return NonStandardTy, nil, fmt.Errorf("invalid address length %d",
			len(decoded))
	}

	payload, checksum := decoded[:len(decoded)-4], decoded[len(decoded)-4:]
	if !bytes.Equal(chainhash.DoubleHashB(payload)[:4], checksum) {
		return NonStandardTy, nil, ErrChecksumMismatch
	}

	var prefix [2]byte
	copy(prefix[:], payload[:2])
	switch prefix {
	case params.PubKeyHashAddrID:
		return PubKeyHashTy, payload[2:], nil
	case params.ScriptHashAddrID:
		return ScriptHashTy, payload[2:], nil
	default:
		return NonStandardTy, nil, fmt.Errorf("%w 0x%x for %s",
			ErrUnknownPrefix, prefix, params.Name)
	}
}

// ExtractAddress recognizes P2PKH and P2SH output scripts and returns the
// address they pay to. Other scripts return NonStandardTy and "".
func ExtractAddress(pkScript []byte, params *chaincfg.Params) (ScriptClass, string) {
	switch {
	// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
	case len(pkScript) == 25 &&
		pkScript[0] == opDup && pkScript[1] == opHash160 &&
		pkScript[2] == opData20 &&
		pkScript[23] == opEqualVerify && pkScript[24] == opCheckSig:

		return PubKeyHashTy, EncodeAddress(pkScript[3:23], params.PubKeyHashAddrID)

	// OP_HASH160 <20 bytes> OP_EQUAL
	case len(pkScript) == 23 &&
		pkScript[0] == opHash160 && pkScript[1] == opData20 &&
		pkScript[22] == opEqual:

		return ScriptHashTy, EncodeAddress(pkScript[2:22], params.ScriptHashAddrID)
	}
	return NonStandardTy, ""
}

// PayToAddrScript builds the output script paying to addr.
func PayToAddrScript(addr string, params *chaincfg.Params) ([]byte, error) {
	class, hash, err := DecodeAddress(addr, params)
	if err != nil {
		return nil, err
	}

	if class == ScriptHashTy {
		script := []byte{opHash160, opData20}
		script = append(script, hash...)
		return append(script, opEqual), nil
	}

	script := []byte{opDup, opHash160, opData20}
	script = append(script, hash...)
	return append(script, opEqualVerify, opCheckSig), nil
}

// InputAddress recognizes a P2PKH signature script, <sig> <pubkey>, and
// returns the address of the key that signed it. The key must be a valid
// secp256k1 point; the signature itself is not checked.
func InputAddress(sigScript []byte, params *chaincfg.Params) (string, bool) {
	pushes, ok := parsePushes(sigScript)
	if !ok || len(pushes) != 2 {
		return "", false
	}

	pubKey := pushes[1]
	if _, err := secp256k1.ParsePubKey(pubKey); err != nil {
		return "", false
	}
	return EncodeAddress(Hash160(pubKey), params.PubKeyHashAddrID), true
}

// parsePushes splits a script made only of data pushes into the pushed
// data. It reports false for any other opcode or a truncated push.
func parsePushes(script []byte) ([][]byte, bool) {
	var pushes [][]byte
	for len(script) > 0 {
		op := script[0]
		script = script[1:]

		var n int
		switch {
		case op >= 0x01 && op < opPushData1:
			n = int(op)
		case op == opPushData1 && len(script) >= 1:
			n = int(script[0])
			script = script[1:]
		case op == opPushData2 && len(script) >= 2:
			n = int(script[0]) | int(script[1])<<8
			script = script[2:]
		default:
			return nil, false
		}

		if n > len(script) {
			return nil, false
		}
		pushes = append(pushes, script[:n])
		script = script[n:]
	}
	return pushes, true
}

package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/zcash-wire/pkg/chaincfg"
)

func counting20() []byte {
	b := make([]byte, 20)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestEncodeAddress(t *testing.T) {
	h := counting20()

	tests := []struct {
		prefix [2]byte
		want   string
	}{
		{chaincfg.MainNetParams.PubKeyHashAddrID, "t1HsdDMzmJfq4vc7T17XYjEkLMLvbgM1fCi"},
		{chaincfg.MainNetParams.ScriptHashAddrID, "t3JZe8uVCra9T1mot8DC99s7GVsDKFy2Xa2"},
		{chaincfg.TestNetParams.PubKeyHashAddrID, "tm9iNYCVAhLLa4rJtfqqHauR5xL1REdpiDs"},
		{chaincfg.TestNetParams.ScriptHashAddrID, "t26YqBabLj2kpZUPd3xCBhVHucMSV83GWSw"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, EncodeAddress(h, tc.prefix))
	}

	assert.Equal(t, "t1Hsc1LR8yKnbbe3twRp88p6vFfC5t7DLbs",
		EncodeAddress(make([]byte, 20), chaincfg.MainNetParams.PubKeyHashAddrID))
}

func TestHash160(t *testing.T) {
	assert.Equal(t, "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb",
		hex.EncodeToString(Hash160(nil)))
}

func TestExtractAddress(t *testing.T) {
	h := counting20()
	params := &chaincfg.TestNetParams

	p2pkh := append(append([]byte{opDup, opHash160, opData20}, h...), opEqualVerify, opCheckSig)
	class, addr := ExtractAddress(p2pkh, params)
	assert.Equal(t, PubKeyHashTy, class)
	assert.Equal(t, "tm9iNYCVAhLLa4rJtfqqHauR5xL1REdpiDs", addr)

	p2sh := append(append([]byte{opHash160, opData20}, h...), opEqual)
	class, addr = ExtractAddress(p2sh, params)
	assert.Equal(t, ScriptHashTy, class)
	assert.Equal(t, "t26YqBabLj2kpZUPd3xCBhVHucMSV83GWSw", addr)

	class, addr = ExtractAddress([]byte{0x6a, 0x01, 0x00}, params)
	assert.Equal(t, NonStandardTy, class)
	assert.Empty(t, addr)
}

func TestDecodeAddress(t *testing.T) {
	for _, addr := range []string{
		"t1HsdDMzmJfq4vc7T17XYjEkLMLvbgM1fCi",
		"t3JZe8uVCra9T1mot8DC99s7GVsDKFy2Xa2",
	} {
		script, err := PayToAddrScript(addr, &chaincfg.MainNetParams)
		require.NoError(t, err)

		_, got := ExtractAddress(script, &chaincfg.MainNetParams)
		assert.Equal(t, addr, got)
	}

	_, _, err := DecodeAddress("t1HsdDMzmJfq4vc7T17XYjEkLMLvbgM1fCj", &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	_, _, err = DecodeAddress("tm9iNYCVAhLLa4rJtfqqHauR5xL1REdpiDs", &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, ErrUnknownPrefix)

	_, _, err = DecodeAddress("t1", &chaincfg.MainNetParams)
	assert.Error(t, err)
}

func TestInputAddress(t *testing.T) {
	keyBytes := make([]byte, 32)
	keyBytes[31] = 7
	priv := secp256k1.PrivKeyFromBytes(keyBytes)

	for _, pub := range [][]byte{
		priv.PubKey().SerializeCompressed(),
		priv.PubKey().SerializeUncompressed(),
	} {
		sig := make([]byte, 71)
		sig[0] = 0x30

		sigScript := append([]byte{byte(len(sig))}, sig...)
		sigScript = append(sigScript, byte(len(pub)))
		sigScript = append(sigScript, pub...)

		addr, ok := InputAddress(sigScript, &chaincfg.MainNetParams)
		require.True(t, ok)
		assert.Equal(t, EncodeAddress(Hash160(pub),
			chaincfg.MainNetParams.PubKeyHashAddrID), addr)
	}

	// Not a point on the curve.
	bogus := make([]byte, 33)
	bogus[0] = 0x02
	bogus[32] = 0x05
	_, ok := InputAddress(append([]byte{0x01, 0x00, 33}, bogus...), &chaincfg.MainNetParams)
	assert.False(t, ok)

	// Coinbase style script with a trailing non-push opcode.
	_, ok = InputAddress([]byte{0x03, 0x01, 0x02, 0x03, 0xac}, &chaincfg.MainNetParams)
	assert.False(t, ok)

	// Truncated push.
	_, ok = InputAddress([]byte{0x05, 0x01}, &chaincfg.MainNetParams)
	assert.False(t, ok)
}

func TestParsePushes(t *testing.T) {
	data := make([]byte, 300)
	script := append([]byte{opPushData2, 0x2c, 0x01}, data...)
	script = append(script, opPushData1, 0x02, 0xaa, 0xbb)

	pushes, ok := parsePushes(script)
	require.True(t, ok)
	require.Len(t, pushes, 2)
	assert.Len(t, pushes[0], 300)
	assert.Equal(t, []byte{0xaa, 0xbb}, pushes[1])
}

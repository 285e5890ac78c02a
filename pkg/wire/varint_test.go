package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestVarIntWire tests the wire encoding of variable length integers at
// every boundary between the encoding sizes.
func TestVarIntWire(t *testing.T) {
	tests := []struct {
		in  uint64
		buf []byte
	}{
		{0, []byte{0x00}},
		{0xfc, []byte{0xfc}},
		{0xfd, []byte{0xfd, 0xfd, 0x00}},
		{0xffff, []byte{0xfd, 0xff, 0xff}},
		{0x10000, []byte{0xfe, 0x00, 0x00, 0x01, 0x00}},
		{0xffffffff, []byte{0xfe, 0xff, 0xff, 0xff, 0xff}},
		{0x100000000, []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}},
		{0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, test.in))
		assert.Equal(t, test.buf, buf.Bytes(), "encode %#x", test.in)
		assert.Equal(t, len(test.buf), VarIntSerializeSize(test.in))

		val, err := ReadVarInt(bytes.NewReader(test.buf))
		require.NoError(t, err)
		assert.Equal(t, test.in, val)

		// The shortest encoding is always canonical.
		val, err = ReadVarInt(NewCanonicalReader(bytes.NewReader(test.buf)))
		require.NoError(t, err)
		assert.Equal(t, test.in, val)
	}
}

func TestVarIntMinimalLength(t *testing.T) {
	values := []uint64{0, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000}
	lengths := []int{1, 1, 3, 3, 5, 5, 9}

	for i, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, v))
		assert.Len(t, buf.Bytes(), lengths[i], "value %#x", v)
	}
}

func TestVarIntRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")

		var buf bytes.Buffer
		if err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("encode: %v", err)
		}
		if buf.Len() != VarIntSerializeSize(v) {
			t.Fatalf("size %d, want %d", buf.Len(), VarIntSerializeSize(v))
		}

		got, err := ReadVarInt(NewCanonicalReader(bytes.NewReader(buf.Bytes())))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != v {
			t.Fatalf("got %d, want %d", got, v)
		}
	})
}

// TestVarIntNonCanonical ensures longer than necessary encodings are
// accepted by default and rejected by a canonical reader.
func TestVarIntNonCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"0 encoded with 3 bytes", []byte{0xfd, 0x00, 0x00}, 0},
		{"max single-byte value encoded with 3 bytes", []byte{0xfd, 0xfc, 0x00}, 0xfc},
		{"0 encoded with 5 bytes", []byte{0xfe, 0x00, 0x00, 0x00, 0x00}, 0},
		{"max three-byte value encoded with 5 bytes", []byte{0xfe, 0xff, 0xff, 0x00, 0x00}, 0xffff},
		{"0 encoded with 9 bytes", []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, 0},
		{"max five-byte value encoded with 9 bytes", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00}, 0xffffffff},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ReadVarInt(bytes.NewReader(test.in))
			require.NoError(t, err)
			assert.Equal(t, test.want, got)

			_, err = ReadVarInt(NewCanonicalReader(bytes.NewReader(test.in)))
			assert.ErrorIs(t, err, errNonCanonicalVarInt)

			// Inside a payload the failure is classified as invalid data.
			var msg Headers
			err = msg.Decode(NewCanonicalReader(bytes.NewReader(test.in)))
			assert.ErrorIs(t, err, ErrInvalidData)

			// Re-encoding emits the canonical form.
			var buf bytes.Buffer
			require.NoError(t, WriteVarInt(&buf, got))
			assert.Len(t, buf.Bytes(), VarIntSerializeSize(got))
		})
	}
}

func TestVarIntTruncated(t *testing.T) {
	tests := [][]byte{
		{},
		{0xfd},
		{0xfd, 0x01},
		{0xfe, 0x01, 0x02, 0x03},
		{0xff, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	}

	for _, in := range tests {
		_, err := ReadVarInt(bytes.NewReader(in))
		require.Error(t, err, "%x", in)

		if len(in) == 0 {
			assert.ErrorIs(t, err, io.EOF)
		} else {
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "%x", in)
		}

		assert.ErrorIs(t, readErr("count", err), ErrUnexpectedEOF)
	}
}

func TestCanonicalReader(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2, 3})
	cr := NewCanonicalReader(r)

	assert.Same(t, cr, NewCanonicalReader(cr), "wrapping twice must not nest")
	assert.Equal(t, 3, cr.Len())

	unsized := NewCanonicalReader(io.LimitReader(r, 3))
	assert.Equal(t, -1, unsized.Len())
	_, ok := remainingBytes(unsized)
	assert.False(t, ok)
}

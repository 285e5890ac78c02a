package wire

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// errNonCanonicalVarInt is returned by strict readers when a compact size
// uses a longer form than its value requires.
var errNonCanonicalVarInt = errors.New("non-canonical varint")

// CanonicalReader wraps a cursor so that every compact size decoded through
// it must use the shortest possible encoding. Decoding through a plain
// reader accepts any encoding, which is what the Zcash network relays in
// practice; encoding always emits the shortest form either way.
type CanonicalReader struct {
	io.Reader
}

// NewCanonicalReader returns r wrapped in strict compact size mode.
func NewCanonicalReader(r io.Reader) *CanonicalReader {
	if cr, ok := r.(*CanonicalReader); ok {
		return cr
	}
	return &CanonicalReader{Reader: r}
}

// ReadVarInt reads a variable length integer (Bitcoin "compact size") from r
// and returns it as a uint64.
//
// Non-minimal encodings are accepted unless r is a *CanonicalReader.
func ReadVarInt(r io.Reader) (uint64, error) {
	discriminant, err := binarySerializer.Uint8(r)
	if err != nil {
		return 0, err
	}

	var rv, minVal uint64
	switch discriminant {
	case 0xff:
		sv, err := binarySerializer.Uint64(r, littleEndian)
		if err != nil {
			return 0, eofMidField(err)
		}
		rv, minVal = sv, 0x100000000

	case 0xfe:
		sv, err := binarySerializer.Uint32(r, littleEndian)
		if err != nil {
			return 0, eofMidField(err)
		}
		rv, minVal = uint64(sv), 0x10000

	case 0xfd:
		sv, err := binarySerializer.Uint16(r, littleEndian)
		if err != nil {
			return 0, eofMidField(err)
		}
		rv, minVal = uint64(sv), 0xfd

	default:
		return uint64(discriminant), nil
	}

	if _, strict := r.(*CanonicalReader); strict && rv < minVal {
		return 0, fmt.Errorf("%w: value %d encoded with discriminant 0x%02x",
			errNonCanonicalVarInt, rv, discriminant)
	}
	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value. The shortest encoding is always used.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return binarySerializer.PutUint8(w, uint8(val))
	}

	if val <= math.MaxUint16 {
		if err := binarySerializer.PutUint8(w, 0xfd); err != nil {
			return err
		}
		return binarySerializer.PutUint16(w, littleEndian, uint16(val))
	}

	if val <= math.MaxUint32 {
		if err := binarySerializer.PutUint8(w, 0xfe); err != nil {
			return err
		}
		return binarySerializer.PutUint32(w, littleEndian, uint32(val))
	}

	if err := binarySerializer.PutUint8(w, 0xff); err != nil {
		return err
	}
	return binarySerializer.PutUint64(w, littleEndian, val)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < 0xfd {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= math.MaxUint16 {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= math.MaxUint32 {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// Len reports the unread bytes of the wrapped cursor, or -1 when the wrapped
// reader cannot tell.
func (c *CanonicalReader) Len() int {
	if n, ok := remainingBytes(c.Reader); ok {
		return n
	}
	return -1
}

// eofMidField turns a clean io.EOF after the discriminant byte into
// io.ErrUnexpectedEOF, since part of the value has already been consumed.
func eofMidField(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

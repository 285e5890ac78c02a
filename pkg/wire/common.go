package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// binaryFreeListMaxItems is the number of buffers to keep in the free
	// list to use for binary serialization and deserialization.
	binaryFreeListMaxItems = 1024

	// maxPreallocItems bounds slice pre-allocation when the cursor cannot
	// report how many bytes remain.
	maxPreallocItems = 64
)

var (
	// littleEndian is a convenience variable since binary.LittleEndian is
	// quite long.
	littleEndian = binary.LittleEndian

	// bigEndian is a convenience variable since binary.BigEndian is quite
	// long.
	bigEndian = binary.BigEndian
)

// errLengthExceedsCursor is returned when a length prefix announces more
// bytes than the cursor still holds.
var errLengthExceedsCursor = errors.New("declared length exceeds remaining bytes")

// binaryFreeList defines a concurrent safe free list of byte slices (up to
// the maximum number defined by the binaryFreeListMaxItems constant) that
// have a cap of 8 (thus it supports up to a uint64). It is used to provide
// temporary buffers for serializing and deserializing primitive numbers to
// and from their binary encoding in order to greatly reduce the number of
// allocations required.
type binaryFreeList chan []byte

// Borrow returns a byte slice from the free list with a length of 8. A new
// buffer is allocated if there are not any available on the free list.
func (l binaryFreeList) Borrow() []byte {
	var buf []byte
	select {
	case buf = <-l:
	default:
		buf = make([]byte, 8)
	}
	return buf[:8]
}

// Return puts the provided byte slice back on the free list.
func (l binaryFreeList) Return(buf []byte) {
	select {
	case l <- buf:
	default:
		// Let it go to the garbage collector.
	}
}

// Uint8 reads a single byte from the provided reader using a buffer from the
// free list and returns it as a uint8.
func (l binaryFreeList) Uint8(r io.Reader) (uint8, error) {
	buf := l.Borrow()[:1]
	if _, err := io.ReadFull(r, buf); err != nil {
		l.Return(buf)
		return 0, err
	}
	rv := buf[0]
	l.Return(buf)
	return rv, nil
}

// Uint16 reads two bytes from the provided reader using a buffer from the
// free list, converts it to a number using the provided byte order, and
// returns the resulting uint16.
func (l binaryFreeList) Uint16(r io.Reader, byteOrder binary.ByteOrder) (uint16, error) {
	buf := l.Borrow()[:2]
	if _, err := io.ReadFull(r, buf); err != nil {
		l.Return(buf)
		return 0, err
	}
	rv := byteOrder.Uint16(buf)
	l.Return(buf)
	return rv, nil
}

// Uint32 reads four bytes from the provided reader using a buffer from the
// free list, converts it to a number using the provided byte order, and
// returns the resulting uint32.
func (l binaryFreeList) Uint32(r io.Reader, byteOrder binary.ByteOrder) (uint32, error) {
	buf := l.Borrow()[:4]
	if _, err := io.ReadFull(r, buf); err != nil {
		l.Return(buf)
		return 0, err
	}
	rv := byteOrder.Uint32(buf)
	l.Return(buf)
	return rv, nil
}

// Uint64 reads eight bytes from the provided reader using a buffer from the
// free list, converts it to a number using the provided byte order, and
// returns the resulting uint64.
func (l binaryFreeList) Uint64(r io.Reader, byteOrder binary.ByteOrder) (uint64, error) {
	buf := l.Borrow()[:8]
	if _, err := io.ReadFull(r, buf); err != nil {
		l.Return(buf)
		return 0, err
	}
	rv := byteOrder.Uint64(buf)
	l.Return(buf)
	return rv, nil
}

// PutUint8 copies the provided uint8 into a buffer from the free list and
// writes the resulting byte to the given writer.
func (l binaryFreeList) PutUint8(w io.Writer, val uint8) error {
	buf := l.Borrow()[:1]
	buf[0] = val
	_, err := w.Write(buf)
	l.Return(buf)
	return err
}

// PutUint16 serializes the provided uint16 using the given byte order into a
// buffer from the free list and writes the resulting two bytes to the given
// writer.
func (l binaryFreeList) PutUint16(w io.Writer, byteOrder binary.ByteOrder, val uint16) error {
	buf := l.Borrow()[:2]
	byteOrder.PutUint16(buf, val)
	_, err := w.Write(buf)
	l.Return(buf)
	return err
}

// PutUint32 serializes the provided uint32 using the given byte order into a
// buffer from the free list and writes the resulting four bytes to the given
// writer.
func (l binaryFreeList) PutUint32(w io.Writer, byteOrder binary.ByteOrder, val uint32) error {
	buf := l.Borrow()[:4]
	byteOrder.PutUint32(buf, val)
	_, err := w.Write(buf)
	l.Return(buf)
	return err
}

// PutUint64 serializes the provided uint64 using the given byte order into a
// buffer from the free list and writes the resulting eight bytes to the given
// writer.
func (l binaryFreeList) PutUint64(w io.Writer, byteOrder binary.ByteOrder, val uint64) error {
	buf := l.Borrow()[:8]
	byteOrder.PutUint64(buf, val)
	_, err := w.Write(buf)
	l.Return(buf)
	return err
}

// binarySerializer provides a free list of buffers to use for serializing and
// deserializing primitive integer values to and from io.Readers and
// io.Writers.
var binarySerializer binaryFreeList = make(chan []byte, binaryFreeListMaxItems)

// ReadBool reads a single byte and reports whether it is nonzero.
func ReadBool(r io.Reader) (bool, error) {
	b, err := binarySerializer.Uint8(r)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// WriteBool writes 0x01 for true and 0x00 for false.
func WriteBool(w io.Writer, v bool) error {
	if v {
		return binarySerializer.PutUint8(w, 0x01)
	}
	return binarySerializer.PutUint8(w, 0x00)
}

// readHash reads a 32-byte hash verbatim.
func readHash(r io.Reader, h *chainhash.Hash) error {
	_, err := io.ReadFull(r, h[:])
	return err
}

// writeHash writes a 32-byte hash verbatim.
func writeHash(w io.Writer, h *chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

// ReadFixedBytes fills buf completely from r. It fails with io.EOF or
// io.ErrUnexpectedEOF when fewer than len(buf) bytes remain.
func ReadFixedBytes(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

// WriteFixedBytes writes buf without a length prefix.
func WriteFixedBytes(w io.Writer, buf []byte) error {
	_, err := w.Write(buf)
	return err
}

// ReadVarBytes reads a compact size length followed by that many bytes.
// fieldName is used in the error returned when the length exceeds maxAllowed.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	if count > maxAllowed {
		return nil, fmt.Errorf("%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
	}
	if remaining, ok := remainingBytes(r); ok && count > uint64(remaining) {
		return nil, fmt.Errorf("%s: %w [count %d, remaining %d]",
			fieldName, errLengthExceedsCursor, count, remaining)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a compact
// size containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarString reads a compact size length followed by that many bytes and
// returns them as a string. The bytes are not required to be valid UTF-8 so
// that whatever a peer sent survives a decode/encode cycle unchanged.
func ReadVarString(r io.Reader, maxAllowed uint64, fieldName string) (string, error) {
	b, err := ReadVarBytes(r, maxAllowed, fieldName)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteVarString serializes str to w as a compact size containing the length
// of the string followed by the raw bytes of the string.
func WriteVarString(w io.Writer, str string) error {
	if err := WriteVarInt(w, uint64(len(str))); err != nil {
		return err
	}
	_, err := io.WriteString(w, str)
	return err
}

// lener is implemented by cursors that know how many unread bytes they hold,
// such as *bytes.Reader and *bytes.Buffer.
type lener interface {
	Len() int
}

// remainingBytes reports how many unread bytes r still holds, if it can tell.
func remainingBytes(r io.Reader) (int, bool) {
	l, ok := r.(lener)
	if !ok {
		return 0, false
	}
	n := l.Len()
	if n < 0 {
		return 0, false
	}
	return n, true
}

// preallocCap returns a safe initial capacity for a slice that will hold
// count elements of at least minSize bytes each. The announced count comes
// from the peer, so it is never trusted beyond what the cursor can back.
func preallocCap(r io.Reader, count uint64, minSize int) int {
	limit := uint64(maxPreallocItems)
	if remaining, ok := remainingBytes(r); ok {
		limit = uint64(remaining / minSize)
	}
	if count < limit {
		return int(count)
	}
	return int(limit)
}

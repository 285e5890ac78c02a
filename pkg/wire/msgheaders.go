package wire

import (
	"fmt"
	"io"
)

// MaxBlockHeadersPerMsg is the number of headers a node sends in reply to a
// single getheaders request. Decoding does not enforce it.
const MaxBlockHeadersPerMsg = 160

// Headers is the headers payload: a count followed by that many headers.
// Each header keeps its own transaction count, but no transactions follow.
type Headers struct {
	Headers []*BlockHeader
}

// NewHeaders returns a headers payload carrying headers.
func NewHeaders(headers []*BlockHeader) *Headers {
	return &Headers{Headers: headers}
}

// EmptyHeaders returns a headers payload with no headers.
func EmptyHeaders() *Headers {
	return &Headers{Headers: []*BlockHeader{}}
}

// AddBlockHeader appends bh to the payload.
func (msg *Headers) AddBlockHeader(bh *BlockHeader) {
	msg.Headers = append(msg.Headers, bh)
}

// Encode writes the payload to w.
func (msg *Headers) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(msg.Headers))); err != nil {
		return writeErr("count", err)
	}
	for i, bh := range msg.Headers {
		if err := bh.Encode(w); err != nil {
			return writeErr(fmt.Sprintf("headers[%d]", i), err)
		}
	}
	return nil
}

// Decode reads the payload from r.
func (msg *Headers) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return readErr("count", err)
	}

	headers := make([]*BlockHeader, 0, preallocCap(r, count, minHeaderLen))
	for i := uint64(0); i < count; i++ {
		bh := new(BlockHeader)
		if err := bh.Decode(r); err != nil {
			return readErr(fmt.Sprintf("headers[%d]", i), err)
		}
		headers = append(headers, bh)
	}

	msg.Headers = headers
	return nil
}

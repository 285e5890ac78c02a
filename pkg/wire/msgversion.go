package wire

import (
	"fmt"
	"io"
	"net/netip"
	"time"
)

// MaxUserAgentLen is the maximum length of a user agent string a node
// accepts.
const MaxUserAgentLen = 256

// Version is the handshake payload a peer sends when a connection opens.
//
// The two addresses use the timestamp-less NetAddress form. Timestamp is a
// signed 64-bit count of seconds, so instants before 1970 round-trip.
type Version struct {
	// Version of the protocol the node is using.
	ProtocolVersion ProtocolVersion

	// Bitfield which identifies the enabled services.
	Services ServiceFlag

	// Time the message was generated. Encoded as seconds since the epoch.
	Timestamp time.Time

	// Address of the remote peer.
	AddrRecv NetAddress

	// Address of the local peer.
	AddrFrom NetAddress

	// Unique value associated with the message that is used to detect self
	// connections.
	Nonce Nonce

	// The user agent that generated the message. Kept as raw bytes.
	UserAgent string

	// Last block seen by the generator of the version message.
	StartHeight uint32

	// Whether the remote peer should announce relayed transactions.
	Relay bool
}

// NewVersion returns a version payload addressed to recv from from, using
// CurrentProtocolVersion, full node services, the current time, a random
// nonce, an empty user agent and a start height of zero.
func NewVersion(recv, from netip.AddrPort) (*Version, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}

	return &Version{
		ProtocolVersion: CurrentProtocolVersion,
		Services:        SFNodeNetwork,
		Timestamp:       time.Unix(time.Now().Unix(), 0),
		AddrRecv:        NewNetAddress(recv, SFNodeNetwork),
		AddrFrom:        NewNetAddress(from, SFNodeNetwork),
		Nonce:           nonce,
	}, nil
}

// Encode writes the payload to w. Relay is always written as 0x00 or 0x01.
func (msg *Version) Encode(w io.Writer) error {
	if err := writeProtocolVersion(w, msg.ProtocolVersion); err != nil {
		return writeErr("version", err)
	}
	if err := binarySerializer.PutUint64(w, littleEndian, uint64(msg.Services)); err != nil {
		return writeErr("services", err)
	}
	if err := binarySerializer.PutUint64(w, littleEndian, uint64(msg.Timestamp.Unix())); err != nil {
		return writeErr("timestamp", err)
	}
	if err := msg.AddrRecv.Encode(w); err != nil {
		return writeErr("addr_recv", err)
	}
	if err := msg.AddrFrom.Encode(w); err != nil {
		return writeErr("addr_from", err)
	}
	if err := writeNonce(w, msg.Nonce); err != nil {
		return writeErr("nonce", err)
	}
	if err := WriteVarString(w, msg.UserAgent); err != nil {
		return writeErr("user_agent", err)
	}
	if err := binarySerializer.PutUint32(w, littleEndian, msg.StartHeight); err != nil {
		return writeErr("start_height", err)
	}
	if err := WriteBool(w, msg.Relay); err != nil {
		return writeErr("relay", err)
	}
	return nil
}

// Decode reads the payload from r. Any nonzero relay byte decodes as true.
func (msg *Version) Decode(r io.Reader) error {
	var out Version
	var err error

	if out.ProtocolVersion, err = readProtocolVersion(r); err != nil {
		return readErr("version", err)
	}

	services, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("services", err)
	}
	out.Services = ServiceFlag(services)

	ts, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("timestamp", err)
	}
	out.Timestamp = time.Unix(int64(ts), 0)

	if err := out.AddrRecv.Decode(r); err != nil {
		return readErr("addr_recv", err)
	}
	if err := out.AddrFrom.Decode(r); err != nil {
		return readErr("addr_from", err)
	}
	if out.Nonce, err = readNonce(r); err != nil {
		return readErr("nonce", err)
	}

	out.UserAgent, err = ReadVarString(r, MaxUserAgentLen, "user_agent")
	if err != nil {
		return readErr("user_agent", err)
	}

	if out.StartHeight, err = binarySerializer.Uint32(r, littleEndian); err != nil {
		return readErr("start_height", err)
	}
	if out.Relay, err = ReadBool(r); err != nil {
		return readErr("relay", err)
	}

	*msg = out
	return nil
}

// String returns a short human-readable description of the payload.
func (msg *Version) String() string {
	return fmt.Sprintf("version %d services %v from %v to %v agent %q "+
		"height %d relay %v", msg.ProtocolVersion, msg.Services,
		msg.AddrFrom.Addr, msg.AddrRecv.Addr, msg.UserAgent,
		msg.StartHeight, msg.Relay)
}

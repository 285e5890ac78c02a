package wire

import (
	"io"
	"net/netip"
	"time"
)

// netAddressIPSize is the size of the address field; IPv4 addresses travel
// as IPv4-mapped IPv6 addresses.
const netAddressIPSize = 16

// NetAddress is the timestamp-less address tuple used by the version
// handshake: a services bitmask followed by a socket address.
//
// Wire layout:
//
//	services (u64le) || ip (16 bytes) || port (u16be)
//
// The port is big-endian even though the surrounding payload is little-endian.
type NetAddress struct {
	Services ServiceFlag    // Services advertised for this address
	Addr     netip.AddrPort // IPv4 addresses are kept unmapped
}

// NewNetAddress returns a NetAddress for addr with the given services.
func NewNetAddress(addr netip.AddrPort, services ServiceFlag) NetAddress {
	return NetAddress{Services: services, Addr: addr}
}

// Encode writes the address tuple to w.
func (na *NetAddress) Encode(w io.Writer) error {
	if err := binarySerializer.PutUint64(w, littleEndian, uint64(na.Services)); err != nil {
		return writeErr("services", err)
	}
	if err := writeSocketAddr(w, na.Addr); err != nil {
		return writeErr("addr", err)
	}
	return nil
}

// Decode reads the address tuple from r.
func (na *NetAddress) Decode(r io.Reader) error {
	services, err := binarySerializer.Uint64(r, littleEndian)
	if err != nil {
		return readErr("services", err)
	}

	addr, err := readSocketAddr(r)
	if err != nil {
		return readErr("addr", err)
	}

	*na = NetAddress{Services: ServiceFlag(services), Addr: addr}
	return nil
}

// TimestampedNetAddress is the address form carried by address gossip
// payloads: a last-seen timestamp prepended to the NetAddress tuple. It has
// its own codec and is never accepted where a NetAddress is expected.
//
// Wire layout:
//
//	timestamp (u32le) || services (u64le) || ip (16 bytes) || port (u16be)
type TimestampedNetAddress struct {
	Timestamp time.Time // Last time the address was seen, second precision
	NetAddress
}

// Encode writes the timestamped address to w.
func (ta *TimestampedNetAddress) Encode(w io.Writer) error {
	if err := binarySerializer.PutUint32(w, littleEndian, uint32(ta.Timestamp.Unix())); err != nil {
		return writeErr("timestamp", err)
	}
	return ta.NetAddress.Encode(w)
}

// Decode reads a timestamped address from r.
func (ta *TimestampedNetAddress) Decode(r io.Reader) error {
	ts, err := binarySerializer.Uint32(r, littleEndian)
	if err != nil {
		return readErr("timestamp", err)
	}

	var na NetAddress
	if err := na.Decode(r); err != nil {
		return err
	}

	*ta = TimestampedNetAddress{
		Timestamp:  time.Unix(int64(ts), 0),
		NetAddress: na,
	}
	return nil
}

// readSocketAddr reads a 16-byte IP and a big-endian port.
func readSocketAddr(r io.Reader) (netip.AddrPort, error) {
	var ip [netAddressIPSize]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return netip.AddrPort{}, err
	}

	port, err := binarySerializer.Uint16(r, bigEndian)
	if err != nil {
		return netip.AddrPort{}, eofMidField(err)
	}

	return netip.AddrPortFrom(netip.AddrFrom16(ip).Unmap(), port), nil
}

// writeSocketAddr writes addr as a 16-byte IP (IPv4 mapped into IPv6) and a
// big-endian port.
func writeSocketAddr(w io.Writer, addr netip.AddrPort) error {
	ip := addr.Addr().As16()
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}
	return binarySerializer.PutUint16(w, bigEndian, addr.Port())
}

/*
Package wire implements the Zcash peer-to-peer payload encodings needed to
exchange blocks and headers and to open a connection.

Payloads

	Block          header followed by its transactions
	BlockHeader    block header, the block hash pre-image plus a tx count
	Headers        count-prefixed vector of headers
	LocatorHashes  body of getblocks and getheaders requests
	Version        handshake payload

Every payload has an Encode(io.Writer) and a Decode(io.Reader) method.
Decoders consume exactly the bytes they need and leave the rest of the
cursor untouched; framing is the caller's business.

Compact sizes

Counts and lengths use the Bitcoin compact size encoding. WriteVarInt always
emits the shortest form. ReadVarInt accepts longer forms, which the network
relays in practice, unless the cursor is wrapped with NewCanonicalReader.

Errors

Decode failures are *DecodeError values whose kind is ErrUnexpectedEOF or
ErrInvalidData; test with errors.Is. Encode failures only come from the
destination writer and match ErrIO.

Block hashes

BlockHeader.BlockHash is the double SHA-256 of the header serialized without
its transaction count. The result is kept in wire order; chainhash.Hash's
String method reverses it for display.
*/
package wire

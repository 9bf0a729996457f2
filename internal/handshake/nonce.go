package handshake

import "encoding/binary"

// nonceFor builds the 12-byte AEAD nonce for AEAD operation counter n.
//
// The original Rust implementation this engine is modeled on writes
// `nonce[10..].copy_from_slice(&n.to_be_bytes())`, copying an 8-byte counter
// into a 2-byte tail slice — it panics for any n that doesn't fit in two
// bytes, which happens well within a single long-lived channel's lifetime.
// This implementation places the full 64-bit counter in nonce[4:12], which
// is the placement the Noise protocol itself specifies for a 64-bit nonce
// in a 96-bit field (leaving nonce[0:4] as the zero prefix).
func nonceFor(n uint64) [12]byte {
	var nonce [12]byte
	binary.BigEndian.PutUint64(nonce[4:], n)
	return nonce
}

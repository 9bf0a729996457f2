package handshake

import (
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

// Role distinguishes the two sides of a Noise XX handshake; key derivation
// order at finalization depends on it.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// Status is the handshake's lifecycle state.
type Status int

const (
	StatusInitial Status = iota
	StatusInProgress
	StatusReady
	StatusFailed
)

// Results carries what a completed handshake produced: the peer's verified
// identifier and the two channel keys, each a vault handle to an AES-256 key.
type Results struct {
	PeerIdentifier identity.Identifier
	EncryptionKey  vault.Handle
	DecryptionKey  vault.Handle
}

// state is the mutable cryptographic state threaded through message
// encode/decode. Secrets live in the vault; state only holds handles and the
// public byte material (h, re, rs, n) that never needs vault protection.
type state struct {
	s  vault.Handle // local static key (ephemeral-lived, per handshake)
	e  vault.Handle // local ephemeral key
	re [32]byte     // remote ephemeral public key
	rs [32]byte     // remote static public key
	ck vault.Handle // chaining key
	k  vault.Handle // cipher key, zero handle means "not yet derived"

	h [32]byte // running hash
	n uint64   // AEAD nonce counter, reset to 0 after every HKDF

	haveRE bool
	haveRS bool
	haveK  bool

	status  Status
	results *Results

	localIdentityPayload []byte
}

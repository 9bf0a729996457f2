// Package vault defines the low-level cryptographic capability set the
// authority core depends on: key generation, ECDH, HKDF, AEAD, and
// identity signing. Everything above this package talks to secrets only
// through opaque handles, never through raw key material.
package vault

import "fmt"

// KeyType identifies the kind of secret a Handle refers to.
type KeyType int

const (
	// KeyTypeX25519 is a Curve25519 key pair, usable for ECDH and public-key export.
	KeyTypeX25519 KeyType = iota
	// KeyTypeEd25519 is a long-term identity signing key pair.
	KeyTypeEd25519
	// KeyTypeAES256 is a 256-bit AES-GCM key.
	KeyTypeAES256
	// KeyTypeSHA256Buffer is an opaque buffer sized for a SHA-256 chaining key.
	KeyTypeSHA256Buffer
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeX25519:
		return "x25519"
	case KeyTypeEd25519:
		return "ed25519"
	case KeyTypeAES256:
		return "aes256"
	case KeyTypeSHA256Buffer:
		return "sha256-buffer"
	default:
		return "unknown"
	}
}

// Persistence describes how long a secret is expected to live. Callers in
// this module leave it at the zero value, Ephemeral, and Soft does not act
// on it; long-term identity keys outlive a process only by being exported
// to disk (see identity.LoadOrGenerate).
type Persistence int

const (
	Ephemeral Persistence = iota
	Persistent
)

// Attributes describes the key to be produced by Generate, or one of the
// outputs requested from HKDF.
type Attributes struct {
	Type        KeyType
	Persistence Persistence
	Length      uint32
}

// Handle is an opaque reference to a secret living inside the vault. The
// zero Handle is never valid.
type Handle uint64

// ErrHandleNotFound is returned when an operation references a Handle the
// vault doesn't know about (already destroyed, or never issued).
var ErrHandleNotFound = fmt.Errorf("vault: handle not found")

// ErrWrongKeyType is returned when an operation requires a Handle of a
// different KeyType than the one it was given.
var ErrWrongKeyType = fmt.Errorf("vault: wrong key type")

// ErrAEADAuthFailed is returned by AEADDecrypt when the tag doesn't match.
var ErrAEADAuthFailed = fmt.Errorf("vault: AEAD authentication failed")

// ErrHKDFArity is returned when HKDF can't produce the requested number of outputs.
var ErrHKDFArity = fmt.Errorf("vault: HKDF output arity mismatch")

// Vault is the set of cryptographic primitives the handshake engine, the
// identity package, and the credential issuer depend on. A production
// deployment backs this with an HSM or OS keychain; Soft is the in-process
// reference implementation used here and in tests.
type Vault interface {
	// Generate creates a new secret matching attrs and returns a handle owning it.
	Generate(attrs Attributes) (Handle, error)

	// Import brings externally-held key material (e.g. loaded from disk)
	// under vault ownership, returning a handle for it.
	Import(raw []byte, attrs Attributes) (Handle, error)

	// PublicKey returns the 32-byte public key for an X25519 or Ed25519 handle.
	PublicKey(h Handle) ([32]byte, error)

	// ECDH performs a Diffie-Hellman exchange between the X25519 handle h
	// and peerPublic, returning a new buffer handle holding the shared secret.
	ECDH(h Handle, peerPublic [32]byte) (Handle, error)

	// HKDF derives len(outputs) new handles from the salt and ikm handles
	// (and an optional info handle), failing unless the number of handles produced exactly
	// matches len(outputs).
	HKDF(salt, ikm Handle, info *Handle, outputs []Attributes) ([]Handle, error)

	// AEADEncrypt seals plaintext under the AES-256 key handle using a
	// 12-byte nonce and additional authenticated data.
	AEADEncrypt(key Handle, plaintext, nonce, aad []byte) ([]byte, error)

	// AEADDecrypt opens ciphertext, failing with ErrAEADAuthFailed on tag mismatch.
	AEADDecrypt(key Handle, ciphertext, nonce, aad []byte) ([]byte, error)

	// Sign produces a signature over data using the Ed25519 identity handle.
	Sign(identityKey Handle, data []byte) ([]byte, error)

	// Verify checks a signature over data against a raw Ed25519 public key
	// (an identity.Identifier), with no handle lookup required.
	Verify(publicKey [32]byte, signature, data []byte) (bool, error)

	// Destroy removes a handle and zeroes its backing bytes. Idempotent.
	Destroy(h Handle) error

	// Export returns the raw bytes behind a handle. Used for persisting
	// long-term identity keys to disk and for test assertions; never called
	// from the handshake hot path.
	Export(h Handle) ([]byte, error)
}

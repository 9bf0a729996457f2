// Package identity models long-term identities, their attribute maps, and
// the keypair lifecycle backing them. An Identifier is the Ed25519 public
// key of a long-term identity; there is no separate indirection layer.
package identity

import (
	"encoding/hex"
	"fmt"
)

// Size is the byte length of an Identifier.
const Size = 32

// Identifier is an opaque 32-byte value identifying a long-term identity.
// It is, concretely, an Ed25519 public key, which lets the vault verify
// signatures against it with no lookup.
type Identifier [Size]byte

// String renders the identifier in its textual form: "I" followed by 64
// lowercase hex characters.
func (id Identifier) String() string {
	return "I" + hex.EncodeToString(id[:])
}

// IsZero reports whether id is the all-zero identifier (never a valid identity).
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// ParseIdentifier decodes the "I"+hex64 textual form produced by String.
func ParseIdentifier(s string) (Identifier, error) {
	var id Identifier
	if len(s) != 1+2*Size || s[0] != 'I' {
		return id, fmt.Errorf("identity: malformed identifier %q: want \"I\" + %d hex chars", s, 2*Size)
	}
	b, err := hex.DecodeString(s[1:])
	if err != nil {
		return id, fmt.Errorf("identity: malformed identifier %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

// MarshalText implements encoding.TextMarshaler so Identifier can be used as
// a CBOR/JSON map key and in config files.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

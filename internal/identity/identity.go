package identity

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meshauth/authority-core/internal/vault"
)

// KeyPair binds a long-term Identifier to the vault handle holding its
// Ed25519 private key. An authority's identity key signs things (credentials,
// handshake payloads), so it lives behind the vault's Sign capability rather
// than as a raw byte array in process memory.
type KeyPair struct {
	Identifier Identifier
	Handle     vault.Handle
}

// Generate creates a new Ed25519 identity keypair inside v.
func Generate(v vault.Vault) (*KeyPair, error) {
	h, err := v.Generate(vault.Attributes{Type: vault.KeyTypeEd25519})
	if err != nil {
		return nil, fmt.Errorf("identity: generate: %w", err)
	}
	pub, err := v.PublicKey(h)
	if err != nil {
		return nil, fmt.Errorf("identity: derive public key: %w", err)
	}
	var id Identifier
	copy(id[:], pub[:])
	return &KeyPair{Identifier: id, Handle: h}, nil
}

// LoadOrGenerate loads a raw Ed25519 private key from path and imports it
// into v, or generates a fresh keypair and persists it to path if the file
// doesn't exist yet.
func LoadOrGenerate(v vault.Vault, path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		h, err := v.Import(data, vault.Attributes{Type: vault.KeyTypeEd25519})
		if err != nil {
			return nil, fmt.Errorf("identity: import %s: %w", path, err)
		}
		pub, err := v.PublicKey(h)
		if err != nil {
			return nil, fmt.Errorf("identity: derive public key from %s: %w", path, err)
		}
		var id Identifier
		copy(id[:], pub[:])
		return &KeyPair{Identifier: id, Handle: h}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("identity: read %s: %w", path, err)
	}

	kp, err := Generate(v)
	if err != nil {
		return nil, err
	}
	raw, err := v.Export(kp.Handle)
	if err != nil {
		return nil, fmt.Errorf("identity: export new identity key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("identity: create identity directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return nil, fmt.Errorf("identity: save identity to %s: %w", path, err)
	}
	return kp, nil
}

// Sign signs data with kp's identity key.
func (kp *KeyPair) Sign(v vault.Vault, data []byte) ([]byte, error) {
	sig, err := v.Sign(kp.Handle, data)
	if err != nil {
		return nil, fmt.Errorf("identity: sign: %w", err)
	}
	return sig, nil
}

// String renders the keypair's identifier for logging.
func (kp *KeyPair) String() string {
	return kp.Identifier.String()
}

// Package credential mints and verifies the short-lived attribute
// credentials a project member presents to peers after enrollment. A
// credential binds a subject identifier to an attribute map under a fixed
// schema id, signed by a purpose key subordinate to the authority's own
// identity.
package credential

import (
	"fmt"
	"time"

	"github.com/meshauth/authority-core/internal/cborcodec"
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

// ProjectMemberSchema is the schema identifier for project-member
// credentials. The authority issues no other schema.
const ProjectMemberSchema uint64 = 1

// MaxValidity is the longest lifetime an issued credential may carry.
const MaxValidity = 30 * 24 * time.Hour

// PurposeKey is a subordinate Ed25519 keypair the authority generates (or
// loads) at startup and uses only to sign issued credentials, so a verifier
// checking a credential never has to trust the authority's long-term
// identity key directly.
type PurposeKey struct {
	Handle    vault.Handle
	PublicKey [32]byte
}

// NewPurposeKey generates a fresh purpose key inside v.
func NewPurposeKey(v vault.Vault) (*PurposeKey, error) {
	h, err := v.Generate(vault.Attributes{Type: vault.KeyTypeEd25519})
	if err != nil {
		return nil, fmt.Errorf("credential: generate purpose key: %w", err)
	}
	pub, err := v.PublicKey(h)
	if err != nil {
		return nil, fmt.Errorf("credential: derive purpose key public key: %w", err)
	}
	return &PurposeKey{Handle: h, PublicKey: pub}, nil
}

// Credential is a signed, time-bounded statement binding Subject to
// Attributes under SchemaID, issued by Issuer.
type Credential struct {
	SchemaID   uint64
	Issuer     identity.Identifier
	Subject    identity.Identifier
	Attributes identity.AttributeMap
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Signature  []byte
}

// CredentialAndPurposeKey is what the issuer worker returns: the credential
// plus the purpose key's public part, so the holder's peers can verify it
// without a separate lookup.
type CredentialAndPurposeKey struct {
	Credential Credential
	PurposeKey [32]byte
}

// signedFields returns the byte sequence a signature is computed over: every
// field except Signature itself, in a fixed order, via canonical CBOR.
func (c Credential) signedFields() ([]byte, error) {
	type signable struct {
		SchemaID   uint64
		Issuer     identity.Identifier
		Subject    identity.Identifier
		Attributes identity.AttributeMap
		CreatedAt  int64
		ExpiresAt  int64
	}
	return cborcodec.Marshal(signable{
		SchemaID:   c.SchemaID,
		Issuer:     c.Issuer,
		Subject:    c.Subject,
		Attributes: c.Attributes,
		CreatedAt:  c.CreatedAt.Unix(),
		ExpiresAt:  c.ExpiresAt.Unix(),
	})
}

// Expired reports whether c's validity window has closed as of now.
func (c Credential) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

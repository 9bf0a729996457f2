package credential

import (
	"fmt"
	"time"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

// Issuer mints credentials on behalf of a single authority identity, signed
// by a purpose key subordinate to it.
type Issuer struct {
	vault      vault.Vault
	authority  identity.Identifier
	purposeKey *PurposeKey
}

// NewIssuer builds an Issuer that signs with purposeKey on behalf of
// authority. The purpose key is expected to already be bound into v.
func NewIssuer(v vault.Vault, authority identity.Identifier, purposeKey *PurposeKey) *Issuer {
	return &Issuer{vault: v, authority: authority, purposeKey: purposeKey}
}

// Issue mints a credential for subject carrying attrs, valid for validity
// (clamped to MaxValidity) starting at now.
func (is *Issuer) Issue(subject identity.Identifier, attrs identity.AttributeMap, validity time.Duration, now time.Time) (*CredentialAndPurposeKey, error) {
	if validity <= 0 || validity > MaxValidity {
		validity = MaxValidity
	}

	cred := Credential{
		SchemaID:   ProjectMemberSchema,
		Issuer:     is.authority,
		Subject:    subject,
		Attributes: attrs.Clone(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(validity),
	}

	signed, err := cred.signedFields()
	if err != nil {
		return nil, fmt.Errorf("credential: encode signable fields: %w", err)
	}
	sig, err := is.vault.Sign(is.purposeKey.Handle, signed)
	if err != nil {
		return nil, fmt.Errorf("credential: sign: %w", err)
	}
	cred.Signature = sig

	return &CredentialAndPurposeKey{Credential: cred, PurposeKey: is.purposeKey.PublicKey}, nil
}

// Verify checks that cred was signed by purposeKey, carries the expected
// schema, and has not expired as of now.
func Verify(v vault.Vault, cred Credential, purposeKey [32]byte, now time.Time) error {
	if cred.SchemaID != ProjectMemberSchema {
		return fmt.Errorf("%w: unexpected schema id %d", ErrUnknownSchema, cred.SchemaID)
	}
	if cred.Expired(now) {
		return ErrExpired
	}
	signed, err := cred.signedFields()
	if err != nil {
		return fmt.Errorf("credential: encode signable fields: %w", err)
	}
	ok, err := v.Verify(purposeKey, cred.Signature, signed)
	if err != nil {
		return fmt.Errorf("credential: verify: %w", err)
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}

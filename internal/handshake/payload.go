package handshake

import (
	"fmt"

	"github.com/meshauth/authority-core/internal/cborcodec"
	"github.com/meshauth/authority-core/internal/credential"
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

// IdentityPayload is exchanged, encrypted, inside msg2/msg3. signature is
// the local identity's signature over its Noise static public key (32
// bytes, no additional context), which is what binds the ephemeral Noise
// session to the long-term identity.
type IdentityPayload struct {
	Identity    identity.Identifier
	Signature   []byte
	Credentials []credential.CredentialAndPurposeKey
}

func encodeIdentityPayload(p IdentityPayload) ([]byte, error) {
	b, err := cborcodec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("handshake: encode identity payload: %w", err)
	}
	return b, nil
}

func decodeIdentityPayload(data []byte) (IdentityPayload, error) {
	var p IdentityPayload
	if err := cborcodec.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: decode identity payload: %v", ErrMessageFormat, err)
	}
	return p, nil
}

func signStaticKey(v vault.Vault, kp *identity.KeyPair, staticPub [32]byte) ([]byte, error) {
	return kp.Sign(v, staticPub[:])
}

// verifySignature checks that sig is their identity's signature over
// staticPub, with no additional context, as the spec requires.
func verifySignature(v vault.Vault, their identity.Identifier, sig []byte, staticPub [32]byte) error {
	ok, err := v.Verify([32]byte(their), sig, staticPub[:])
	if err != nil {
		return fmt.Errorf("handshake: verify signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: signature does not match static key", ErrVerificationFailed)
	}
	return nil
}

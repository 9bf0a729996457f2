package handshake

import (
	"fmt"
	"time"

	"github.com/meshauth/authority-core/internal/credential"
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

// TrustPolicy decides whether a handshake should proceed once the peer's
// identity is known, independent of any credentials it presents. The zero
// value (nil) is treated as allow-all.
type TrustPolicy interface {
	Check(peer identity.Identifier) (bool, error)
}

// AllowAll accepts every peer identifier; the default when no trust policy
// is configured.
type AllowAll struct{}

func (AllowAll) Check(identity.Identifier) (bool, error) { return true, nil }

// TrustContext configures per-credential verification: each credential
// presented in a peer's identity payload must name Authority as its issuer
// and the peer as its subject, and must carry a valid, unexpired signature
// by the purpose key presented alongside it. That purpose key is not itself
// checked against Authority.
type TrustContext struct {
	Authority identity.Identifier
	Now       func() time.Time
}

func (tc *TrustContext) now() time.Time {
	if tc.Now != nil {
		return tc.Now()
	}
	return time.Now()
}

// verifyCredentials implements spec.md §4.B item 4: if a trust context is
// configured, every presented credential must validate against it; if none
// is configured but the local side expected credentials, verification
// fails.
func verifyCredentials(v vault.Vault, tc *TrustContext, peer identity.Identifier, creds []credential.CredentialAndPurposeKey, credentialsExpected bool) error {
	if tc != nil {
		for _, c := range creds {
			if c.Credential.Issuer != tc.Authority {
				return fmt.Errorf("%w: credential issuer is not the configured authority", ErrVerificationFailed)
			}
			if c.Credential.Subject != peer {
				return fmt.Errorf("%w: credential subject does not match peer", ErrVerificationFailed)
			}
			if err := credential.Verify(v, c.Credential, c.PurposeKey, tc.now()); err != nil {
				return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
			}
		}
		return nil
	}
	if credentialsExpected {
		return fmt.Errorf("%w: credentials expected but no trust context configured", ErrVerificationFailed)
	}
	return nil
}

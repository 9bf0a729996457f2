package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/meshauth/authority-core/internal/identity"
)

// OneTimeCode is a 16-byte value redeemable into membership, possibly
// multiple times up to a Token's ttl_count. uuid.UUID is exactly the
// 16-byte layout the wire format requires, so it doubles as the codec.
type OneTimeCode uuid.UUID

// NewOneTimeCode generates a random one-time code.
func NewOneTimeCode() OneTimeCode {
	return OneTimeCode(uuid.New())
}

// String renders the code in UUID text form.
func (c OneTimeCode) String() string {
	return uuid.UUID(c).String()
}

// ParseOneTimeCode decodes the UUID text form produced by String.
func ParseOneTimeCode(s string) (OneTimeCode, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OneTimeCode{}, err
	}
	return OneTimeCode(u), nil
}

// Token is an enrollment token: redeeming it with the matching one-time
// code creates a Member carrying Attrs, attributed to IssuedBy.
type Token struct {
	OneTimeCode OneTimeCode
	IssuedBy    identity.Identifier
	CreatedAt   time.Time
	ExpiresAt   time.Time
	TTLCount    uint64
	Attrs       identity.AttributeMap
}

// TokenStore is the enrollment-token capability set: issue and use. Use is
// atomic per spec: expired tokens are swept first, then the matching token
// is looked up and its ttl_count decremented (or the record deleted once
// exhausted) within a single transaction.
type TokenStore interface {
	Issue(t Token) error
	Use(code OneTimeCode, now time.Time) (*Token, error)
}

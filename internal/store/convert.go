package store

import (
	"fmt"
	"time"

	"github.com/meshauth/authority-core/internal/identity"
)

func memberToRow(m Member) (memberRow, error) {
	attrs, err := m.Attributes.MarshalCanonicalCBOR()
	if err != nil {
		return memberRow{}, fmt.Errorf("store: encode member attributes: %w", err)
	}
	row := memberRow{
		Identifier:   m.Identifier.String(),
		Attributes:   attrs,
		AddedAt:      m.AddedAt.Unix(),
		IsPreTrusted: m.IsPreTrusted,
	}
	if m.AddedBy != nil {
		s := m.AddedBy.String()
		row.AddedBy = &s
	}
	if m.ExpiresAt != nil {
		e := m.ExpiresAt.Unix()
		row.ExpiresAt = &e
	}
	return row, nil
}

func rowToMember(row memberRow) (Member, error) {
	id, err := identity.ParseIdentifier(row.Identifier)
	if err != nil {
		return Member{}, fmt.Errorf("store: decode member identifier: %w", err)
	}
	attrs, err := identity.UnmarshalAttributeMap(row.Attributes)
	if err != nil {
		return Member{}, fmt.Errorf("store: decode member attributes: %w", err)
	}
	m := Member{
		Identifier:   id,
		Attributes:   attrs,
		AddedAt:      time.Unix(row.AddedAt, 0).UTC(),
		IsPreTrusted: row.IsPreTrusted,
	}
	if row.AddedBy != nil {
		addedBy, err := identity.ParseIdentifier(*row.AddedBy)
		if err != nil {
			return Member{}, fmt.Errorf("store: decode member added_by: %w", err)
		}
		m.AddedBy = &addedBy
	}
	if row.ExpiresAt != nil {
		e := time.Unix(*row.ExpiresAt, 0).UTC()
		m.ExpiresAt = &e
	}
	return m, nil
}

func tokenToRow(t Token) (tokenRow, error) {
	attrs, err := t.Attrs.MarshalCanonicalCBOR()
	if err != nil {
		return tokenRow{}, fmt.Errorf("store: encode token attributes: %w", err)
	}
	return tokenRow{
		OneTimeCode: t.OneTimeCode.String(),
		IssuedBy:    t.IssuedBy.String(),
		CreatedAt:   t.CreatedAt.Unix(),
		ExpiresAt:   t.ExpiresAt.Unix(),
		TTLCount:    int64(t.TTLCount),
		Attributes:  attrs,
	}, nil
}

func rowToToken(row tokenRow) (Token, error) {
	code, err := ParseOneTimeCode(row.OneTimeCode)
	if err != nil {
		return Token{}, fmt.Errorf("store: decode token one_time_code: %w", err)
	}
	issuedBy, err := identity.ParseIdentifier(row.IssuedBy)
	if err != nil {
		return Token{}, fmt.Errorf("store: decode token issued_by: %w", err)
	}
	attrs, err := identity.UnmarshalAttributeMap(row.Attributes)
	if err != nil {
		return Token{}, fmt.Errorf("store: decode token attributes: %w", err)
	}
	return Token{
		OneTimeCode: code,
		IssuedBy:    issuedBy,
		CreatedAt:   time.Unix(row.CreatedAt, 0).UTC(),
		ExpiresAt:   time.Unix(row.ExpiresAt, 0).UTC(),
		TTLCount:    uint64(row.TTLCount),
		Attrs:       attrs,
	}, nil
}

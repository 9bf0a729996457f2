// Package store defines the member and enrollment-token registries: the
// authority's only durable state. MemberStore and TokenStore are
// interfaces so the SQL-backed implementation (sqlstore.go) and the
// in-memory test double (memstore.go) are interchangeable everywhere a
// worker needs one.
package store

import (
	"time"

	"github.com/meshauth/authority-core/internal/identity"
)

// Member is a recognized identity together with its attributes and
// provenance. Pre-trusted members were loaded from the startup bootstrap
// file rather than added by an enroller at runtime, and cannot be deleted.
type Member struct {
	Identifier   identity.Identifier
	Attributes   identity.AttributeMap
	AddedBy      *identity.Identifier
	AddedAt      time.Time
	ExpiresAt    *time.Time
	IsPreTrusted bool
}

// MemberStore is the member registry's capability set: get, get_all, add
// (upsert), delete (no-op on pre-trusted records), bootstrap_pre_trusted
// (atomic replace-all of the pre-trusted subset).
type MemberStore interface {
	Get(id identity.Identifier) (*Member, error)
	GetAll() ([]Member, error)
	Add(m Member) error
	Delete(id identity.Identifier) error
	BootstrapPreTrusted(members []Member) error
}

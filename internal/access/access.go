// Package access implements the authority's access-control predicates:
// gating which authenticated channels may reach the member-management
// surface.
package access

import (
	"log/slog"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
)

const roleAttribute = "ockam-role"
const enrollerRole = "enroller"

// EnrollersOnly authorizes a channel only if its peer is a registered
// member carrying the enroller role. An unknown peer or one without the
// role is denied, not errored.
type EnrollersOnly struct {
	members store.MemberStore
	log     *slog.Logger
}

func NewEnrollersOnly(members store.MemberStore, log *slog.Logger) *EnrollersOnly {
	if log == nil {
		log = slog.Default()
	}
	return &EnrollersOnly{members: members, log: log}
}

// IsAuthorized reports whether peer may use the direct-authenticator worker.
func (a *EnrollersOnly) IsAuthorized(peer identity.Identifier) (bool, error) {
	member, err := a.members.Get(peer)
	if err != nil {
		return false, err
	}
	if member == nil {
		a.log.Warn("member not found; access denied", "peer", peer)
		return false, nil
	}
	role, ok := member.Attributes[roleAttribute]
	if !ok {
		a.log.Warn("member doesn't have role; access denied", "peer", peer)
		return false, nil
	}
	if string(role) != enrollerRole {
		a.log.Warn("member not enroller; access denied", "peer", peer)
		return false, nil
	}
	return true, nil
}

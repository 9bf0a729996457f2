package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
)

func TestEnrollersOnlyAllowsEnroller(t *testing.T) {
	members := store.NewMemMemberStore()
	var enroller identity.Identifier
	enroller[0] = 1
	require.NoError(t, members.Add(store.Member{
		Identifier: enroller,
		Attributes: identity.AttributeMap{"ockam-role": []byte("enroller")},
		AddedAt:    time.Now(),
	}))

	ac := NewEnrollersOnly(members, nil)
	ok, err := ac.IsAuthorized(enroller)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEnrollersOnlyDeniesUnknownPeer(t *testing.T) {
	members := store.NewMemMemberStore()
	var stranger identity.Identifier
	stranger[0] = 2

	ac := NewEnrollersOnly(members, nil)
	ok, err := ac.IsAuthorized(stranger)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnrollersOnlyDeniesNonEnrollerMember(t *testing.T) {
	members := store.NewMemMemberStore()
	var user identity.Identifier
	user[0] = 3
	require.NoError(t, members.Add(store.Member{
		Identifier: user,
		Attributes: identity.AttributeMap{"ockam-role": []byte("user")},
		AddedAt:    time.Now(),
	}))

	ac := NewEnrollersOnly(members, nil)
	ok, err := ac.IsAuthorized(user)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnrollersOnlyDeniesMemberWithoutRoleAttribute(t *testing.T) {
	members := store.NewMemMemberStore()
	var user identity.Identifier
	user[0] = 4
	require.NoError(t, members.Add(store.Member{
		Identifier: user,
		Attributes: identity.AttributeMap{},
		AddedAt:    time.Now(),
	}))

	ac := NewEnrollersOnly(members, nil)
	ok, err := ac.IsAuthorized(user)
	require.NoError(t, err)
	require.False(t, ok)
}

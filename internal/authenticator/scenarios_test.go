package authenticator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshauth/authority-core/internal/access"
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
	"github.com/meshauth/authority-core/internal/wire"
)

// TestScenarioBootstrapThenEnrollerAddsMember exercises S1: bootstrap a
// pre-trusted enroller, have it add a new member, then confirm the new
// member is listed.
func TestScenarioBootstrapThenEnrollerAddsMember(t *testing.T) {
	members := store.NewMemMemberStore()

	var enroller, newMember identity.Identifier
	enroller[0] = 1
	newMember[0] = 3

	require.NoError(t, members.BootstrapPreTrusted([]store.Member{{
		Identifier:   enroller,
		Attributes:   identity.AttributeMap{"ockam-role": []byte("enroller")},
		AddedAt:      time.Now(),
		IsPreTrusted: true,
	}}))

	ac := access.NewEnrollersOnly(members, nil)
	authorized, err := ac.IsAuthorized(enroller)
	require.NoError(t, err)
	require.True(t, authorized)

	auth := NewDirectAuthenticator(members, nil)
	addReq := wire.RequestHeader{ID: 1, Method: wire.MethodPost, Path: "members"}
	addMsg, err := wire.EncodeRequest(addReq, AddMemberBody{Member: newMember, Attrs: map[string]string{"role": "user"}})
	require.NoError(t, err)
	resp, err := auth.HandleMessage(&enroller, addMsg)
	require.NoError(t, err)
	require.Equal(t, wire.StatusOK, resp.Status)

	listReq := wire.RequestHeader{ID: 2, Method: wire.MethodGet, Path: "members"}
	listMsg, err := wire.EncodeRequest(listReq, nil)
	require.NoError(t, err)
	resp, err = auth.HandleMessage(&enroller, listMsg)
	require.NoError(t, err)

	var entries map[identity.Identifier]AttributesEntry
	require.NoError(t, decodeBody(resp.Body, &entries))
	require.Contains(t, entries, newMember)
}

// TestScenarioNonEnrollerDeniedAtAccessControl exercises S3: a non-enroller
// never reaches the worker because the access-control gate denies it first.
func TestScenarioNonEnrollerDeniedAtAccessControl(t *testing.T) {
	members := store.NewMemMemberStore()
	var stranger identity.Identifier
	stranger[0] = 2

	ac := access.NewEnrollersOnly(members, nil)
	authorized, err := ac.IsAuthorized(stranger)
	require.NoError(t, err)
	require.False(t, authorized)
	// A real dispatcher would stop here; the worker is never invoked.
}

// TestScenarioDeleteThenRepeatIsIdempotent exercises S5.
func TestScenarioDeleteThenRepeatIsIdempotent(t *testing.T) {
	members := store.NewMemMemberStore()
	var enroller, target identity.Identifier
	enroller[0] = 1
	target[0] = 3
	require.NoError(t, members.Add(store.Member{Identifier: target, AddedAt: time.Now()}))

	auth := NewDirectAuthenticator(members, nil)
	delReq := wire.RequestHeader{ID: 1, Method: wire.MethodDelete, Path: "members/" + target.String()}
	delMsg, err := wire.EncodeRequest(delReq, nil)
	require.NoError(t, err)

	resp, err := auth.HandleMessage(&enroller, delMsg)
	require.NoError(t, err)
	require.Equal(t, wire.StatusOK, resp.Status)

	idsReq := wire.RequestHeader{ID: 2, Method: wire.MethodGet, Path: "member_ids"}
	idsMsg, err := wire.EncodeRequest(idsReq, nil)
	require.NoError(t, err)
	resp, err = auth.HandleMessage(&enroller, idsMsg)
	require.NoError(t, err)
	var ids []identity.Identifier
	require.NoError(t, decodeBody(resp.Body, &ids))
	require.NotContains(t, ids, target)

	resp, err = auth.HandleMessage(&enroller, delMsg)
	require.NoError(t, err)
	require.Equal(t, wire.StatusOK, resp.Status)
}

package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	v := vault.NewSoft()
	authority, err := identity.Generate(v)
	require.NoError(t, err)
	pk, err := NewPurposeKey(v)
	require.NoError(t, err)
	issuer := NewIssuer(v, authority.Identifier, pk)

	subject, err := identity.Generate(v)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cred, err := issuer.Issue(subject.Identifier, identity.AttributeMap{"role": []byte("user")}, 0, now)
	require.NoError(t, err)
	require.Equal(t, ProjectMemberSchema, cred.Credential.SchemaID)
	require.Equal(t, now.Add(MaxValidity), cred.Credential.ExpiresAt)

	require.NoError(t, Verify(v, cred.Credential, cred.PurposeKey, now.Add(time.Hour)))
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := vault.NewSoft()
	authority, err := identity.Generate(v)
	require.NoError(t, err)
	pk, err := NewPurposeKey(v)
	require.NoError(t, err)
	issuer := NewIssuer(v, authority.Identifier, pk)
	subject, err := identity.Generate(v)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cred, err := issuer.Issue(subject.Identifier, nil, time.Minute, now)
	require.NoError(t, err)

	err = Verify(v, cred.Credential, cred.PurposeKey, now.Add(time.Hour))
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTamperedAttributes(t *testing.T) {
	v := vault.NewSoft()
	authority, err := identity.Generate(v)
	require.NoError(t, err)
	pk, err := NewPurposeKey(v)
	require.NoError(t, err)
	issuer := NewIssuer(v, authority.Identifier, pk)
	subject, err := identity.Generate(v)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cred, err := issuer.Issue(subject.Identifier, identity.AttributeMap{"role": []byte("user")}, 0, now)
	require.NoError(t, err)

	cred.Credential.Attributes["role"] = []byte("admin")
	err = Verify(v, cred.Credential, cred.PurposeKey, now.Add(time.Minute))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestAttributePassthroughOnMemberAttributes(t *testing.T) {
	v := vault.NewSoft()
	authority, err := identity.Generate(v)
	require.NoError(t, err)
	pk, err := NewPurposeKey(v)
	require.NoError(t, err)
	issuer := NewIssuer(v, authority.Identifier, pk)
	subject, err := identity.Generate(v)
	require.NoError(t, err)

	memberAttrs := identity.AttributeMap{"role": []byte("enroller"), "team": []byte("core")}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cred, err := issuer.Issue(subject.Identifier, memberAttrs, 0, now)
	require.NoError(t, err)

	for k, v := range memberAttrs {
		require.Equal(t, v, cred.Credential.Attributes[k])
	}
}

package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshauth/authority-core/internal/vault"
)

func TestGenerateProducesVerifiableIdentity(t *testing.T) {
	v := vault.NewSoft()
	kp, err := Generate(v)
	require.NoError(t, err)
	require.False(t, kp.Identifier.IsZero())

	sig, err := kp.Sign(v, []byte("hello"))
	require.NoError(t, err)

	ok, err := v.Verify([32]byte(kp.Identifier), sig, []byte("hello"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoadOrGenerateRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity.key")

	v1 := vault.NewSoft()
	kp1, err := LoadOrGenerate(v1, path)
	require.NoError(t, err)

	v2 := vault.NewSoft()
	kp2, err := LoadOrGenerate(v2, path)
	require.NoError(t, err)

	require.Equal(t, kp1.Identifier, kp2.Identifier)
}

func TestIdentifierStringRoundTrip(t *testing.T) {
	v := vault.NewSoft()
	kp, err := Generate(v)
	require.NoError(t, err)

	s := kp.Identifier.String()
	parsed, err := ParseIdentifier(s)
	require.NoError(t, err)
	require.Equal(t, kp.Identifier, parsed)
}

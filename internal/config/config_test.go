package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAuthorityConfigOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authority.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: /data/authority.db
log_level: debug
`), 0o600))

	cfg, err := LoadAuthorityConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/data/authority.db", cfg.Database)
	require.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	require.Equal(t, "/etc/authority-core/identity.key", cfg.IdentityPath)
	require.Equal(t, "720h", cfg.CredentialValidity)
}

func TestLoadAuthorityConfigMissingFile(t *testing.T) {
	_, err := LoadAuthorityConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadPreTrusted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pre_trusted.json")
	const idText = "I0102030405060708090a0b0c0d0e0f1011121314151617181920212223242526"
	require.NoError(t, os.WriteFile(path, []byte(`{
  "`+idText+`": {
    "ockam-role": "enroller",
    "name": "bootstrap"
  }
}`), 0o600))

	members, err := LoadPreTrusted(path)
	require.NoError(t, err)
	require.Len(t, members, 1)

	m := members[0]
	require.Equal(t, idText, m.Identifier.String())
	require.True(t, m.IsPreTrusted)
	require.Nil(t, m.AddedBy)
	require.Nil(t, m.ExpiresAt)
	require.False(t, m.AddedAt.IsZero())
	require.Equal(t, []byte("enroller"), m.Attributes["ockam-role"])
	require.Equal(t, []byte("bootstrap"), m.Attributes["name"])
}

func TestLoadPreTrustedEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	members, err := LoadPreTrusted(path)
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestLoadPreTrustedMissingFile(t *testing.T) {
	_, err := LoadPreTrusted(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadPreTrustedMalformedIdentifier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not-an-identifier": {"role": "x"}}`), 0o600))

	_, err := LoadPreTrusted(path)
	require.Error(t, err)
}

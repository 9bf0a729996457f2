package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSoftECDHAgreement(t *testing.T) {
	v := NewSoft()

	aPriv, err := v.Generate(Attributes{Type: KeyTypeX25519})
	require.NoError(t, err)
	bPriv, err := v.Generate(Attributes{Type: KeyTypeX25519})
	require.NoError(t, err)

	aPub, err := v.PublicKey(aPriv)
	require.NoError(t, err)
	bPub, err := v.PublicKey(bPriv)
	require.NoError(t, err)

	aShared, err := v.ECDH(aPriv, bPub)
	require.NoError(t, err)
	bShared, err := v.ECDH(bPriv, aPub)
	require.NoError(t, err)

	aBytes, err := v.Export(aShared)
	require.NoError(t, err)
	bBytes, err := v.Export(bShared)
	require.NoError(t, err)
	require.Equal(t, aBytes, bBytes)
}

func TestSoftHKDFArity(t *testing.T) {
	v := NewSoft()
	salt, err := v.Generate(Attributes{Type: KeyTypeSHA256Buffer, Length: 32})
	require.NoError(t, err)
	ikm, err := v.Generate(Attributes{Type: KeyTypeSHA256Buffer, Length: 32})
	require.NoError(t, err)

	outs, err := v.HKDF(salt, ikm, nil, []Attributes{
		{Type: KeyTypeSHA256Buffer, Length: 32},
		{Type: KeyTypeAES256, Length: 32},
	})
	require.NoError(t, err)
	require.Len(t, outs, 2)
}

func TestSoftAEADRoundTrip(t *testing.T) {
	v := NewSoft()
	key, err := v.Generate(Attributes{Type: KeyTypeAES256})
	require.NoError(t, err)

	nonce := make([]byte, 12)
	aad := []byte("header")
	ct, err := v.AEADEncrypt(key, []byte("hello"), nonce, aad)
	require.NoError(t, err)

	pt, err := v.AEADDecrypt(key, ct, nonce, aad)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)

	ct[0] ^= 0xFF
	_, err = v.AEADDecrypt(key, ct, nonce, aad)
	require.ErrorIs(t, err, ErrAEADAuthFailed)
}

func TestSoftSignVerify(t *testing.T) {
	v := NewSoft()
	idKey, err := v.Generate(Attributes{Type: KeyTypeEd25519})
	require.NoError(t, err)
	pub, err := v.PublicKey(idKey)
	require.NoError(t, err)

	sig, err := v.Sign(idKey, []byte("data"))
	require.NoError(t, err)

	ok, err := v.Verify(pub, sig, []byte("data"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(pub, sig, []byte("tampered"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSoftDestroyIdempotent(t *testing.T) {
	v := NewSoft()
	h, err := v.Generate(Attributes{Type: KeyTypeAES256})
	require.NoError(t, err)
	require.NoError(t, v.Destroy(h))
	require.NoError(t, v.Destroy(h))

	_, err = v.Export(h)
	require.ErrorIs(t, err, ErrHandleNotFound)
}

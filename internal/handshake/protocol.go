package handshake

import (
	"crypto/sha256"
	"fmt"

	"github.com/meshauth/authority-core/internal/vault"
)

// protocolName is the Noise protocol identifier, padded to 32 bytes exactly
// as the protocol requires ("Noise_XX_25519_AESGCM_SHA256" is 28 bytes).
var protocolName = [32]byte{}

func init() {
	copy(protocolName[:], "Noise_XX_25519_AESGCM_SHA256")
}

func mixHash(h [32]byte, data []byte) [32]byte {
	hasher := sha256.New()
	hasher.Write(h[:])
	hasher.Write(data)
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// hkdf derives a new chaining key and cipher key from ck and the output of a
// DH operation (dh), destroying the previous ck and k.
func hkdf(v vault.Vault, ck, k vault.Handle, dh vault.Handle) (newCK, newK vault.Handle, err error) {
	outs, err := v.HKDF(ck, dh, nil, []vault.Attributes{
		{Type: vault.KeyTypeSHA256Buffer, Length: 32},
		{Type: vault.KeyTypeAES256, Length: 32},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("handshake: hkdf: %w", err)
	}
	if k != 0 {
		_ = v.Destroy(k)
	}
	if ck != 0 {
		_ = v.Destroy(ck)
	}
	return outs[0], outs[1], nil
}

// finalize derives the two transport keys from the final chaining key, per
// spec.md §4.B: "(k1, k2) = HKDF(ck, k, no_dh)". Unlike the per-message
// hkdf step, both outputs are AES-256 keys destined for transport AEAD, not
// a (chaining-key, cipher-key) pair.
func finalize(v vault.Vault, ck, k vault.Handle) (k1, k2 vault.Handle, err error) {
	empty, err := v.Import(nil, vault.Attributes{Type: vault.KeyTypeSHA256Buffer})
	if err != nil {
		return 0, 0, fmt.Errorf("handshake: finalize: zero-length ikm: %w", err)
	}
	defer v.Destroy(empty)

	outs, err := v.HKDF(ck, empty, nil, []vault.Attributes{
		{Type: vault.KeyTypeAES256, Length: 32},
		{Type: vault.KeyTypeAES256, Length: 32},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("handshake: finalize: %w", err)
	}
	if k != 0 {
		_ = v.Destroy(k)
	}
	if ck != 0 {
		_ = v.Destroy(ck)
	}
	return outs[0], outs[1], nil
}

func encryptAndHash(v vault.Vault, k vault.Handle, h [32]byte, n uint64, plaintext []byte) ([]byte, [32]byte, error) {
	nonce := nonceFor(n)
	ct, err := v.AEADEncrypt(k, plaintext, nonce[:], h[:])
	if err != nil {
		return nil, h, fmt.Errorf("handshake: encrypt: %w", err)
	}
	return ct, mixHash(h, ct), nil
}

func decryptAndHash(v vault.Vault, k vault.Handle, h [32]byte, n uint64, ciphertext []byte) ([]byte, [32]byte, error) {
	nonce := nonceFor(n)
	pt, err := v.AEADDecrypt(k, ciphertext, nonce[:], h[:])
	if err != nil {
		return nil, h, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return pt, mixHash(h, ciphertext), nil
}

const (
	keySize          = 32
	aeadTagSize      = 16
	encryptedKeySize = keySize + aeadTagSize
)

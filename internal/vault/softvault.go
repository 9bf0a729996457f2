package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

type entry struct {
	typ   KeyType
	bytes []byte
}

// Soft is an in-process Vault backed by an in-memory handle table. It is the
// reference implementation used by tests and by any deployment that doesn't
// plug in an HSM or OS keychain.
type Soft struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]entry
}

// NewSoft creates an empty in-memory vault.
func NewSoft() *Soft {
	return &Soft{entries: make(map[Handle]entry)}
}

func (s *Soft) store(typ KeyType, b []byte) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	cp := make([]byte, len(b))
	copy(cp, b)
	s.entries[h] = entry{typ: typ, bytes: cp}
	return h
}

func (s *Soft) get(h Handle) (entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return entry{}, ErrHandleNotFound
	}
	return e, nil
}

func clampX25519(priv []byte) {
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
}

// Generate implements Vault.
func (s *Soft) Generate(attrs Attributes) (Handle, error) {
	switch attrs.Type {
	case KeyTypeX25519:
		var priv [32]byte
		if _, err := rand.Read(priv[:]); err != nil {
			return 0, fmt.Errorf("vault: generate x25519: %w", err)
		}
		clampX25519(priv[:])
		return s.store(KeyTypeX25519, priv[:]), nil
	case KeyTypeEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return 0, fmt.Errorf("vault: generate ed25519: %w", err)
		}
		return s.store(KeyTypeEd25519, priv), nil
	case KeyTypeAES256:
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return 0, fmt.Errorf("vault: generate aes256: %w", err)
		}
		return s.store(KeyTypeAES256, buf), nil
	case KeyTypeSHA256Buffer:
		length := attrs.Length
		if length == 0 {
			length = 32
		}
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			return 0, fmt.Errorf("vault: generate buffer: %w", err)
		}
		return s.store(KeyTypeSHA256Buffer, buf), nil
	default:
		return 0, fmt.Errorf("vault: generate: unsupported key type %s", attrs.Type)
	}
}

// Import implements Vault.
func (s *Soft) Import(raw []byte, attrs Attributes) (Handle, error) {
	if attrs.Type == KeyTypeX25519 && len(raw) != 32 {
		return 0, fmt.Errorf("vault: import x25519: want 32 bytes, got %d", len(raw))
	}
	if attrs.Type == KeyTypeEd25519 && len(raw) != ed25519.PrivateKeySize {
		return 0, fmt.Errorf("vault: import ed25519: want %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return s.store(attrs.Type, raw), nil
}

// PublicKey implements Vault.
func (s *Soft) PublicKey(h Handle) ([32]byte, error) {
	var out [32]byte
	e, err := s.get(h)
	if err != nil {
		return out, err
	}
	switch e.typ {
	case KeyTypeX25519:
		pub, err := curve25519.X25519(e.bytes, curve25519.Basepoint)
		if err != nil {
			return out, fmt.Errorf("vault: derive x25519 public key: %w", err)
		}
		copy(out[:], pub)
		return out, nil
	case KeyTypeEd25519:
		pub := ed25519.PrivateKey(e.bytes).Public().(ed25519.PublicKey)
		copy(out[:], pub)
		return out, nil
	default:
		return out, fmt.Errorf("vault: public_key: %w: %s has no public key", ErrWrongKeyType, e.typ)
	}
}

// ECDH implements Vault.
func (s *Soft) ECDH(h Handle, peerPublic [32]byte) (Handle, error) {
	e, err := s.get(h)
	if err != nil {
		return 0, err
	}
	if e.typ != KeyTypeX25519 {
		return 0, fmt.Errorf("vault: ecdh: %w: need x25519, got %s", ErrWrongKeyType, e.typ)
	}
	shared, err := curve25519.X25519(e.bytes, peerPublic[:])
	if err != nil {
		return 0, fmt.Errorf("vault: ecdh: %w", err)
	}
	return s.store(KeyTypeSHA256Buffer, shared), nil
}

// HKDF implements Vault.
func (s *Soft) HKDF(salt, ikm Handle, info *Handle, outputs []Attributes) ([]Handle, error) {
	saltEntry, err := s.get(salt)
	if err != nil {
		return nil, fmt.Errorf("vault: hkdf salt: %w", err)
	}
	ikmEntry, err := s.get(ikm)
	if err != nil {
		return nil, fmt.Errorf("vault: hkdf ikm: %w", err)
	}
	var infoBytes []byte
	if info != nil {
		infoEntry, err := s.get(*info)
		if err != nil {
			return nil, fmt.Errorf("vault: hkdf info: %w", err)
		}
		infoBytes = infoEntry.bytes
	}

	r := hkdf.New(sha256.New, ikmEntry.bytes, saltEntry.bytes, infoBytes)

	handles := make([]Handle, 0, len(outputs))
	for _, out := range outputs {
		length := int(out.Length)
		if length == 0 {
			length = 32
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("vault: hkdf expand: %w", err)
		}
		handles = append(handles, s.store(out.Type, buf))
	}
	if len(handles) != len(outputs) {
		return nil, ErrHKDFArity
	}
	return handles, nil
}

// AEADEncrypt implements Vault.
func (s *Soft) AEADEncrypt(key Handle, plaintext, nonce, aad []byte) ([]byte, error) {
	gcm, err := s.gcmFor(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, aad), nil
}

// AEADDecrypt implements Vault.
func (s *Soft) AEADDecrypt(key Handle, ciphertext, nonce, aad []byte) ([]byte, error) {
	gcm, err := s.gcmFor(key)
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAEADAuthFailed
	}
	return pt, nil
}

func (s *Soft) gcmFor(key Handle) (cipher.AEAD, error) {
	e, err := s.get(key)
	if err != nil {
		return nil, err
	}
	if e.typ != KeyTypeAES256 {
		return nil, fmt.Errorf("vault: aead: %w: need aes256, got %s", ErrWrongKeyType, e.typ)
	}
	block, err := aes.NewCipher(e.bytes)
	if err != nil {
		return nil, fmt.Errorf("vault: aead: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: aead: %w", err)
	}
	return gcm, nil
}

// Sign implements Vault.
func (s *Soft) Sign(identityKey Handle, data []byte) ([]byte, error) {
	e, err := s.get(identityKey)
	if err != nil {
		return nil, err
	}
	if e.typ != KeyTypeEd25519 {
		return nil, fmt.Errorf("vault: sign: %w: need ed25519, got %s", ErrWrongKeyType, e.typ)
	}
	return ed25519.Sign(ed25519.PrivateKey(e.bytes), data), nil
}

// Verify implements Vault.
func (s *Soft) Verify(publicKey [32]byte, signature, data []byte) (bool, error) {
	return ed25519.Verify(publicKey[:], data, signature), nil
}

// Destroy implements Vault.
func (s *Soft) Destroy(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return nil
	}
	for i := range e.bytes {
		e.bytes[i] = 0
	}
	delete(s.entries, h)
	return nil
}

// Export implements Vault.
func (s *Soft) Export(h Handle) ([]byte, error) {
	e, err := s.get(h)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(e.bytes))
	copy(cp, e.bytes)
	return cp, nil
}

var _ Vault = (*Soft)(nil)

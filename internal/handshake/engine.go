// Package handshake implements the Noise_XX_25519_AESGCM_SHA256 state
// machine that establishes a mutually authenticated, confidential channel
// between two identities and binds it to their long-term identity keys.
package handshake

import (
	"fmt"

	"github.com/meshauth/authority-core/internal/credential"
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/vault"
)

// Engine drives one handshake to completion. Callers push received bytes in
// and pull bytes to send out via the Step methods, in lockstep with the
// state machine in spec.md §4.B:
//
//	Initial → send_msg1 → WaitMsg2 → recv_msg2 → SendMsg3 → send_msg3 → Ready  (initiator)
//	Initial → recv_msg1 → SendMsg2 → send_msg2 → WaitMsg3 → recv_msg3 → Ready  (responder)
type Engine struct {
	vault        vault.Vault
	role         Role
	identity     *identity.KeyPair
	credentials  []credential.CredentialAndPurposeKey
	trustPolicy  TrustPolicy
	trustContext *TrustContext

	st state
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithCredentials attaches credentials the local identity presents to its
// peer during the handshake.
func WithCredentials(creds []credential.CredentialAndPurposeKey) Option {
	return func(e *Engine) { e.credentials = creds }
}

// WithTrustPolicy overrides the default allow-all trust policy.
func WithTrustPolicy(p TrustPolicy) Option {
	return func(e *Engine) { e.trustPolicy = p }
}

// WithTrustContext enables credential verification against tc.
func WithTrustContext(tc *TrustContext) Option {
	return func(e *Engine) { e.trustContext = tc }
}

func newEngine(v vault.Vault, role Role, local *identity.KeyPair, opts []Option) (*Engine, error) {
	e := &Engine{
		vault:       v,
		role:        role,
		identity:    local,
		trustPolicy: AllowAll{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.trustPolicy == nil {
		e.trustPolicy = AllowAll{}
	}

	sHandle, err := v.Generate(vault.Attributes{Type: vault.KeyTypeX25519})
	if err != nil {
		return nil, fmt.Errorf("handshake: generate static key: %w", err)
	}
	eHandle, err := v.Generate(vault.Attributes{Type: vault.KeyTypeX25519})
	if err != nil {
		return nil, fmt.Errorf("handshake: generate ephemeral key: %w", err)
	}
	sPub, err := v.PublicKey(sHandle)
	if err != nil {
		return nil, fmt.Errorf("handshake: derive static public key: %w", err)
	}

	sig, err := signStaticKey(v, local, sPub)
	if err != nil {
		return nil, fmt.Errorf("handshake: sign static key: %w", err)
	}
	payload, err := encodeIdentityPayload(IdentityPayload{
		Identity:    local.Identifier,
		Signature:   sig,
		Credentials: e.credentials,
	})
	if err != nil {
		return nil, err
	}

	ck, err := v.Import(protocolName[:], vault.Attributes{Type: vault.KeyTypeSHA256Buffer})
	if err != nil {
		return nil, fmt.Errorf("handshake: import initial chaining key: %w", err)
	}

	e.st = state{
		s:                    sHandle,
		e:                    eHandle,
		ck:                   ck,
		h:                    mixHash(protocolName, nil),
		status:               StatusInitial,
		localIdentityPayload: payload,
	}
	return e, nil
}

// Initiator constructs an Engine for the side that sends msg1 first.
func Initiator(v vault.Vault, local *identity.KeyPair, opts ...Option) (*Engine, error) {
	return newEngine(v, RoleInitiator, local, opts)
}

// Responder constructs an Engine for the side that receives msg1 first.
func Responder(v vault.Vault, local *identity.KeyPair, opts ...Option) (*Engine, error) {
	return newEngine(v, RoleResponder, local, opts)
}

func (e *Engine) localStaticPub() ([32]byte, error) {
	return e.vault.PublicKey(e.st.s)
}

func (e *Engine) localEphemeralPub() ([32]byte, error) {
	return e.vault.PublicKey(e.st.e)
}

// SendMessage1 produces msg1 (initiator only): e_pub || payload1. payload1
// is always empty in this implementation; the field exists in the wire
// format for forward compatibility.
func (e *Engine) SendMessage1() ([]byte, error) {
	if e.role != RoleInitiator || e.st.status != StatusInitial {
		e.fail()
		return nil, ErrWrongState
	}
	ePub, err := e.localEphemeralPub()
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.h = mixHash(e.st.h, ePub[:])
	var payload1 []byte
	e.st.h = mixHash(e.st.h, payload1)
	e.st.status = StatusInProgress
	return ePub[:], nil
}

// ReceiveMessage1 consumes msg1 (responder only).
func (e *Engine) ReceiveMessage1(msg []byte) error {
	if e.role != RoleResponder || e.st.status != StatusInitial {
		e.fail()
		return ErrWrongState
	}
	if len(msg) < keySize {
		e.fail()
		return fmt.Errorf("%w: message1 too short", ErrMessageFormat)
	}
	copy(e.st.re[:], msg[:keySize])
	e.st.haveRE = true
	e.st.h = mixHash(e.st.h, e.st.re[:])
	payload1 := msg[keySize:]
	e.st.h = mixHash(e.st.h, payload1)
	e.st.status = StatusInProgress
	return nil
}

// SendMessage2 produces msg2 (responder only): e_pub || enc(s_pub) ||
// enc(identity_payload).
func (e *Engine) SendMessage2() ([]byte, error) {
	if e.role != RoleResponder || e.st.status != StatusInProgress || !e.st.haveRE {
		e.fail()
		return nil, ErrWrongState
	}
	ePub, err := e.localEphemeralPub()
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.h = mixHash(e.st.h, ePub[:])

	dh, err := e.vault.ECDH(e.st.e, e.st.re)
	if err != nil {
		e.fail()
		return nil, fmt.Errorf("handshake: dh(e, re): %w", err)
	}
	e.st.ck, e.st.k, err = hkdf(e.vault, e.st.ck, e.st.k, dh)
	if err != nil {
		e.fail()
		return nil, err
	}
	_ = e.vault.Destroy(dh)
	e.st.n = 0

	sPub, err := e.localStaticPub()
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.n++
	encS, h, err := encryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, sPub[:])
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.h = h

	dh, err = e.vault.ECDH(e.st.s, e.st.re)
	if err != nil {
		e.fail()
		return nil, fmt.Errorf("handshake: dh(s, re): %w", err)
	}
	e.st.ck, e.st.k, err = hkdf(e.vault, e.st.ck, e.st.k, dh)
	if err != nil {
		e.fail()
		return nil, err
	}
	_ = e.vault.Destroy(dh)
	e.st.n = 0

	e.st.n++
	encPayload, h, err := encryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, e.st.localIdentityPayload)
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.h = h

	out := make([]byte, 0, keySize+len(encS)+len(encPayload))
	out = append(out, ePub[:]...)
	out = append(out, encS...)
	out = append(out, encPayload...)
	return out, nil
}

// ReceiveMessage2 consumes msg2 (initiator only) and returns the peer's
// identity payload for the caller to verify with VerifyPeer.
func (e *Engine) ReceiveMessage2(msg []byte) (IdentityPayload, error) {
	var zero IdentityPayload
	if e.role != RoleInitiator || e.st.status != StatusInProgress {
		e.fail()
		return zero, ErrWrongState
	}
	if len(msg) < keySize+encryptedKeySize {
		e.fail()
		return zero, fmt.Errorf("%w: message2 too short", ErrMessageFormat)
	}
	copy(e.st.re[:], msg[:keySize])
	e.st.haveRE = true
	e.st.h = mixHash(e.st.h, e.st.re[:])

	dh, err := e.vault.ECDH(e.st.e, e.st.re)
	if err != nil {
		e.fail()
		return zero, fmt.Errorf("handshake: dh(e, re): %w", err)
	}
	e.st.ck, e.st.k, err = hkdf(e.vault, e.st.ck, e.st.k, dh)
	if err != nil {
		e.fail()
		return zero, err
	}
	_ = e.vault.Destroy(dh)
	e.st.n = 0

	encS := msg[keySize : keySize+encryptedKeySize]
	e.st.n++
	rsBytes, h, err := decryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, encS)
	if err != nil {
		e.fail()
		return zero, err
	}
	e.st.h = h
	copy(e.st.rs[:], rsBytes)
	e.st.haveRS = true

	dh, err = e.vault.ECDH(e.st.e, e.st.rs)
	if err != nil {
		e.fail()
		return zero, fmt.Errorf("handshake: dh(e, rs): %w", err)
	}
	e.st.ck, e.st.k, err = hkdf(e.vault, e.st.ck, e.st.k, dh)
	if err != nil {
		e.fail()
		return zero, err
	}
	_ = e.vault.Destroy(dh)
	e.st.n = 0

	encPayload := msg[keySize+encryptedKeySize:]
	e.st.n++
	payloadBytes, h, err := decryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, encPayload)
	if err != nil {
		e.fail()
		return zero, err
	}
	e.st.h = h

	peerPayload, err := decodeIdentityPayload(payloadBytes)
	if err != nil {
		e.fail()
		return zero, err
	}
	return peerPayload, nil
}

// SendMessage3 produces msg3 (initiator only): enc(s_pub) ||
// enc(identity_payload).
func (e *Engine) SendMessage3() ([]byte, error) {
	if e.role != RoleInitiator || e.st.status != StatusInProgress || !e.st.haveRS {
		e.fail()
		return nil, ErrWrongState
	}
	sPub, err := e.localStaticPub()
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.n++
	encS, h, err := encryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, sPub[:])
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.h = h

	dh, err := e.vault.ECDH(e.st.s, e.st.re)
	if err != nil {
		e.fail()
		return nil, fmt.Errorf("handshake: dh(s, re): %w", err)
	}
	e.st.ck, e.st.k, err = hkdf(e.vault, e.st.ck, e.st.k, dh)
	if err != nil {
		e.fail()
		return nil, err
	}
	_ = e.vault.Destroy(dh)
	e.st.n = 0

	e.st.n++
	encPayload, h, err := encryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, e.st.localIdentityPayload)
	if err != nil {
		e.fail()
		return nil, err
	}
	e.st.h = h

	out := make([]byte, 0, len(encS)+len(encPayload))
	out = append(out, encS...)
	out = append(out, encPayload...)
	return out, nil
}

// ReceiveMessage3 consumes msg3 (responder only) and returns the peer's
// identity payload for the caller to verify with VerifyPeer.
func (e *Engine) ReceiveMessage3(msg []byte) (IdentityPayload, error) {
	var zero IdentityPayload
	if e.role != RoleResponder || e.st.status != StatusInProgress {
		e.fail()
		return zero, ErrWrongState
	}
	if len(msg) < encryptedKeySize {
		e.fail()
		return zero, fmt.Errorf("%w: message3 too short", ErrMessageFormat)
	}
	encS := msg[:encryptedKeySize]
	e.st.n++
	rsBytes, h, err := decryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, encS)
	if err != nil {
		e.fail()
		return zero, err
	}
	e.st.h = h
	copy(e.st.rs[:], rsBytes)
	e.st.haveRS = true

	dh, err := e.vault.ECDH(e.st.e, e.st.rs)
	if err != nil {
		e.fail()
		return zero, fmt.Errorf("handshake: dh(e, rs): %w", err)
	}
	e.st.ck, e.st.k, err = hkdf(e.vault, e.st.ck, e.st.k, dh)
	if err != nil {
		e.fail()
		return zero, err
	}
	_ = e.vault.Destroy(dh)
	e.st.n = 0

	encPayload := msg[encryptedKeySize:]
	e.st.n++
	payloadBytes, h, err := decryptAndHash(e.vault, e.st.k, e.st.h, e.st.n, encPayload)
	if err != nil {
		e.fail()
		return zero, err
	}
	e.st.h = h

	peerPayload, err := decodeIdentityPayload(payloadBytes)
	if err != nil {
		e.fail()
		return zero, err
	}
	return peerPayload, nil
}

// VerifyPeer checks a received identity payload (signature over the remote
// static key, trust policy, credentials) and, on success, finalizes the
// handshake into Ready with the derived channel keys.
func (e *Engine) VerifyPeer(payload IdentityPayload) error {
	if err := verifySignature(e.vault, payload.Identity, payload.Signature, e.st.rs); err != nil {
		e.fail()
		return err
	}
	trusted, err := e.trustPolicy.Check(payload.Identity)
	if err != nil {
		e.fail()
		return fmt.Errorf("handshake: trust policy: %w", err)
	}
	if !trusted {
		e.fail()
		return fmt.Errorf("%w: trust policy rejected peer", ErrVerificationFailed)
	}
	credentialsExpected := len(e.credentials) > 0
	if err := verifyCredentials(e.vault, e.trustContext, payload.Identity, payload.Credentials, credentialsExpected); err != nil {
		e.fail()
		return err
	}

	k1, k2, err := finalize(e.vault, e.st.ck, e.st.k)
	if err != nil {
		e.fail()
		return err
	}
	e.st.ck, e.st.k = 0, 0

	var encryptKey, decryptKey vault.Handle
	if e.role == RoleInitiator {
		encryptKey, decryptKey = k2, k1
	} else {
		encryptKey, decryptKey = k1, k2
	}

	_ = e.vault.Destroy(e.st.s)
	_ = e.vault.Destroy(e.st.e)

	e.st.results = &Results{
		PeerIdentifier: payload.Identity,
		EncryptionKey:  encryptKey,
		DecryptionKey:  decryptKey,
	}
	e.st.status = StatusReady
	return nil
}

func (e *Engine) fail() {
	e.st.status = StatusFailed
	if e.st.s != 0 {
		_ = e.vault.Destroy(e.st.s)
	}
	if e.st.e != 0 {
		_ = e.vault.Destroy(e.st.e)
	}
	if e.st.ck != 0 {
		_ = e.vault.Destroy(e.st.ck)
	}
	if e.st.k != 0 {
		_ = e.vault.Destroy(e.st.k)
	}
}

// Status reports the handshake's current lifecycle state.
func (e *Engine) Status() Status { return e.st.status }

// Results returns the completed handshake's peer identity and channel keys.
// It returns ErrNotReady before the handshake reaches Ready.
func (e *Engine) Results() (*Results, error) {
	if e.st.status != StatusReady {
		return nil, ErrNotReady
	}
	return e.st.results, nil
}

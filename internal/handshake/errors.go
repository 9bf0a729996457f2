package handshake

import "errors"

var (
	// ErrVerificationFailed covers a received ciphertext whose AEAD tag does
	// not verify and every way a decoded identity payload can fail to check
	// out: bad signature, trust policy rejection, invalid credential, or
	// credentials expected but absent. A payload that fails to decode is
	// reported as ErrMessageFormat. Both are fatal to the handshake.
	ErrVerificationFailed = errors.New("handshake: secure channel verification failed")
	// ErrMessageFormat is returned when a received message is the wrong
	// length or otherwise structurally invalid.
	ErrMessageFormat = errors.New("handshake: malformed message")
	// ErrWrongState is returned when a Step method is called out of order
	// for the handshake's role and progress.
	ErrWrongState = errors.New("handshake: called out of sequence")
	// ErrNotReady is returned by Results before the handshake has completed.
	ErrNotReady = errors.New("handshake: not ready")
)

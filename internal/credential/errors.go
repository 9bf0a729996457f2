package credential

import "errors"

var (
	// ErrExpired is returned by Verify when a credential's validity window
	// has closed.
	ErrExpired = errors.New("credential: expired")
	// ErrBadSignature is returned by Verify when the signature doesn't match
	// the purpose key presented alongside the credential.
	ErrBadSignature = errors.New("credential: bad signature")
	// ErrUnknownSchema is returned by Verify for any schema id other than
	// ProjectMemberSchema.
	ErrUnknownSchema = errors.New("credential: unknown schema")
)

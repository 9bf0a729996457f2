package authenticator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meshauth/authority-core/internal/credential"
	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
	"github.com/meshauth/authority-core/internal/wire"
)

// CredentialsIssuer mints a signed membership credential for the caller.
// §4.F.
type CredentialsIssuer struct {
	members store.MemberStore
	issuer  *credential.Issuer
	log     *slog.Logger
}

func NewCredentialsIssuer(members store.MemberStore, issuer *credential.Issuer, log *slog.Logger) *CredentialsIssuer {
	if log == nil {
		log = slog.Default()
	}
	return &CredentialsIssuer{members: members, issuer: issuer, log: log}
}

func (ci *CredentialsIssuer) HandleMessage(peer *identity.Identifier, message []byte) (resp wire.Response, err error) {
	from, err := requirePeer(peer)
	if err != nil {
		return wire.Response{}, err
	}

	req, _, err := wire.DecodeRequestHeader(message)
	if err != nil {
		return wire.Response{}, fmt.Errorf("%w: %v", ErrMessageFormat, err)
	}
	defer recoverPanic(ci.log, req, &resp, &err)
	traceRequest(ci.log, "credentials_issuer", from, req)

	segments := pathSegments(req.Path)
	if req.Method != wire.MethodPost || len(segments) != 1 || (segments[0] != "" && segments[0] != "credential") {
		ci.log.Debug("unknown path", "err", ErrUnknownPath, "method", req.Method, "path", req.Path)
		return wire.UnknownPath(req), nil
	}

	cred, err := ci.issueCredential(from)
	if err != nil {
		ci.log.Error("issue credential failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
		return wire.InternalError(req, "attributes storage error"), nil
	}
	if cred == nil {
		// Access control normally prevents this; reaching here means a
		// member was deleted between authorization and this request.
		ci.log.Warn("issue credential denied", "err", ErrNotAuthorized, "subject", from)
		return wire.Forbidden(req, "unauthorized member"), nil
	}
	return wire.OKWithBody(req, cred)
}

func (ci *CredentialsIssuer) issueCredential(subject identity.Identifier) (*credential.CredentialAndPurposeKey, error) {
	member, err := ci.members.Get(subject)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, nil
	}
	return ci.issuer.Issue(subject, member.Attributes, credential.MaxValidity, time.Now())
}

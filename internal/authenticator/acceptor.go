package authenticator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
	"github.com/meshauth/authority-core/internal/wire"
)

// TokenAcceptor redeems one-time enrollment codes into membership. §4.E.
type TokenAcceptor struct {
	tokens  store.TokenStore
	members store.MemberStore
	log     *slog.Logger
}

func NewTokenAcceptor(tokens store.TokenStore, members store.MemberStore, log *slog.Logger) *TokenAcceptor {
	if log == nil {
		log = slog.Default()
	}
	return &TokenAcceptor{tokens: tokens, members: members, log: log}
}

func (a *TokenAcceptor) HandleMessage(peer *identity.Identifier, message []byte) (resp wire.Response, err error) {
	from, err := requirePeer(peer)
	if err != nil {
		return wire.Response{}, err
	}

	req, dec, err := wire.DecodeRequestHeader(message)
	if err != nil {
		return wire.Response{}, fmt.Errorf("%w: %v", ErrMessageFormat, err)
	}
	defer recoverPanic(a.log, req, &resp, &err)
	traceRequest(a.log, "enrollment_token_acceptor", from, req)

	segments := pathSegments(req.Path)
	if req.Method != wire.MethodPost || len(segments) != 1 || (segments[0] != "" && segments[0] != "credential") {
		a.log.Debug("unknown path", "err", ErrUnknownPath, "method", req.Method, "path", req.Path)
		return wire.UnknownPath(req), nil
	}

	var code store.OneTimeCode
	if err := dec.DecodeBody(&code); err != nil {
		return wire.Response{}, fmt.Errorf("%w: %v", ErrMessageFormat, err)
	}

	return a.acceptToken(req, code, from)
}

func (a *TokenAcceptor) acceptToken(req wire.RequestHeader, code store.OneTimeCode, from identity.Identifier) (wire.Response, error) {
	token, err := a.tokens.Use(code, time.Now())
	if err != nil {
		a.log.Error("use token failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
		return wire.InternalError(req, "attributes storage error"), nil
	}
	if token == nil {
		a.log.Warn("token redemption failed", "err", ErrUnknownToken)
		return wire.Forbidden(req, "unknown token"), nil
	}

	m := store.Member{
		Identifier: from,
		Attributes: token.Attrs.Clone(),
		AddedBy:    &token.IssuedBy,
		AddedAt:    time.Now(),
	}
	if err := a.members.Add(m); err != nil {
		a.log.Error("add member failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
		return wire.InternalError(req, "attributes storage error"), nil
	}
	return wire.OK(req), nil
}

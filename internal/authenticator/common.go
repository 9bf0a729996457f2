// Package authenticator implements the three request/response workers
// reachable only through an authenticated channel: the direct authenticator
// (member CRUD), the enrollment-token acceptor, and the credentials issuer.
package authenticator

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/wire"
)

// ErrSecureChannelRequired is returned when a worker receives a message
// that didn't arrive over a channel carrying proven peer identity. Callers
// drop the request rather than reply, per spec.md §4.D.
var ErrSecureChannelRequired = errors.New("authenticator: secure channel required")

// requirePeer extracts the verified peer identifier from channel local-info,
// or reports ErrSecureChannelRequired if the message arrived unauthenticated.
func requirePeer(peer *identity.Identifier) (identity.Identifier, error) {
	if peer == nil {
		return identity.Identifier{}, ErrSecureChannelRequired
	}
	return *peer, nil
}

// pathSegments splits a request path the way the original's
// path_segments::<5>() does: "" and "/" both yield a single empty segment,
// "members/abc" yields ["members", "abc"].
func pathSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{""}
	}
	return strings.Split(trimmed, "/")
}

func traceRequest(log *slog.Logger, worker string, from identity.Identifier, req wire.RequestHeader) {
	log.Debug("request",
		"worker", worker,
		"from", from,
		"id", req.ID,
		"method", req.Method,
		"path", req.Path,
		"has_body", req.HasBody,
	)
}

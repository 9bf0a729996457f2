package authenticator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/meshauth/authority-core/internal/wire"
)

// Sentinel errors for the semantic failure kinds a worker can hit internally.
// Workers wrap the sentinel with %w and format the underlying cause with %v,
// so errors.Is matches the sentinel (not the cause) on the errors they return
// or log, even though most callers only see the resulting wire.Response.
var (
	// ErrMessageFormat covers a request body that doesn't decode into the
	// shape a handler expects.
	ErrMessageFormat = errors.New("authenticator: malformed message")
	// ErrNotAuthorized covers a caller that decoded fine but isn't entitled
	// to the thing it asked for (wrong role, unknown member).
	ErrNotAuthorized = errors.New("authenticator: not authorized")
	// ErrUnknownToken covers a one-time code that doesn't exist, is expired,
	// or has already been spent.
	ErrUnknownToken = errors.New("authenticator: unknown token")
	// ErrStorageFailure covers a MemberStore/TokenStore call that failed.
	ErrStorageFailure = errors.New("authenticator: storage error")
	// ErrUnknownPath covers a (method, path) pair a worker doesn't serve.
	ErrUnknownPath = errors.New("authenticator: unknown path")
)

// recoverPanic turns a panic inside a worker's request handling into an
// InternalError response instead of crashing the caller, the same
// protection leebo-zerogo's gin.Recovery() middleware gives HTTP handlers.
func recoverPanic(log *slog.Logger, req wire.RequestHeader, resp *wire.Response, err *error) {
	if r := recover(); r != nil {
		log.Error("worker panic", "id", req.ID, "path", req.Path, "recovered", r)
		*resp = wire.InternalError(req, fmt.Sprintf("internal error: %v", r))
		*err = nil
	}
}

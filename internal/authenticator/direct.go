package authenticator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
	"github.com/meshauth/authority-core/internal/wire"
)

// AddMemberBody is the POST body for adding or updating a member.
type AddMemberBody struct {
	Member    identity.Identifier
	Attrs     map[string]string
	ExpiresAt *int64 // unix seconds, optional
}

// AttributesEntry is what list endpoints return per member: the attributes
// plus enough provenance for a caller to audit where they came from.
type AttributesEntry struct {
	Attrs   map[string]string
	AddedAt int64
	AddedBy *identity.Identifier
}

// DirectAuthenticator serves member management: add, list, delete. §4.D.
type DirectAuthenticator struct {
	members store.MemberStore
	log     *slog.Logger
}

func NewDirectAuthenticator(members store.MemberStore, log *slog.Logger) *DirectAuthenticator {
	if log == nil {
		log = slog.Default()
	}
	return &DirectAuthenticator{members: members, log: log}
}

// HandleMessage processes one request. peer is nil when the message didn't
// arrive over an authenticated channel.
func (d *DirectAuthenticator) HandleMessage(peer *identity.Identifier, message []byte) (resp wire.Response, err error) {
	from, err := requirePeer(peer)
	if err != nil {
		return wire.Response{}, err
	}

	req, dec, err := wire.DecodeRequestHeader(message)
	if err != nil {
		return wire.Response{}, fmt.Errorf("%w: %v", ErrMessageFormat, err)
	}
	defer recoverPanic(d.log, req, &resp, &err)
	traceRequest(d.log, "direct_authenticator", from, req)

	segments := pathSegments(req.Path)

	switch {
	case req.Method == wire.MethodPost && (segments[0] == "" || segments[0] == "members") && len(segments) <= 1:
		var body AddMemberBody
		if err := dec.DecodeBody(&body); err != nil {
			return wire.Response{}, fmt.Errorf("%w: %v", ErrMessageFormat, err)
		}
		if err := d.addMember(from, body); err != nil {
			d.log.Error("add member failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
			return wire.InternalError(req, "attributes storage error"), nil
		}
		return wire.OK(req), nil

	case req.Method == wire.MethodGet && len(segments) == 1 && segments[0] == "member_ids":
		ids, err := d.listMemberIDs()
		if err != nil {
			d.log.Error("list member ids failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
			return wire.InternalError(req, "attributes storage error"), nil
		}
		return wire.OKWithBody(req, ids)

	case req.Method == wire.MethodGet && (segments[0] == "" || segments[0] == "members") && len(segments) <= 1:
		entries, err := d.listMembers()
		if err != nil {
			d.log.Error("list members failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
			return wire.InternalError(req, "attributes storage error"), nil
		}
		return wire.OKWithBody(req, entries)

	case req.Method == wire.MethodDelete && len(segments) == 1 && segments[0] != "":
		id, err := identity.ParseIdentifier(segments[0])
		if err != nil {
			return wire.Forbidden(req, "malformed identifier"), nil
		}
		if err := d.members.Delete(id); err != nil {
			d.log.Error("delete member failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
			return wire.InternalError(req, "attributes storage error"), nil
		}
		return wire.OK(req), nil

	case req.Method == wire.MethodDelete && len(segments) == 2 && segments[0] == "members":
		id, err := identity.ParseIdentifier(segments[1])
		if err != nil {
			return wire.Forbidden(req, "malformed identifier"), nil
		}
		if err := d.members.Delete(id); err != nil {
			d.log.Error("delete member failed", "err", fmt.Errorf("%w: %v", ErrStorageFailure, err))
			return wire.InternalError(req, "attributes storage error"), nil
		}
		return wire.OK(req), nil

	default:
		d.log.Debug("unknown path", "err", ErrUnknownPath, "method", req.Method, "path", req.Path)
		return wire.UnknownPath(req), nil
	}
}

func (d *DirectAuthenticator) addMember(enroller identity.Identifier, body AddMemberBody) error {
	attrs := make(identity.AttributeMap, len(body.Attrs))
	for k, v := range body.Attrs {
		attrs[k] = []byte(v)
	}
	m := store.Member{
		Identifier:   body.Member,
		Attributes:   attrs,
		AddedBy:      &enroller,
		AddedAt:      time.Now(),
		IsPreTrusted: false,
	}
	if body.ExpiresAt != nil {
		e := time.Unix(*body.ExpiresAt, 0).UTC()
		m.ExpiresAt = &e
	}
	return d.members.Add(m)
}

func (d *DirectAuthenticator) listMemberIDs() ([]identity.Identifier, error) {
	members, err := d.members.GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]identity.Identifier, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.Identifier)
	}
	return ids, nil
}

func (d *DirectAuthenticator) listMembers() (map[identity.Identifier]AttributesEntry, error) {
	members, err := d.members.GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[identity.Identifier]AttributesEntry, len(members))
	for _, m := range members {
		attrs := make(map[string]string, len(m.Attributes))
		for k, v := range m.Attributes {
			attrs[k] = string(v)
		}
		out[m.Identifier] = AttributesEntry{
			Attrs:   attrs,
			AddedAt: m.AddedAt.Unix(),
			AddedBy: m.AddedBy,
		}
	}
	return out, nil
}

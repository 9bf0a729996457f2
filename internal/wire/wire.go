// Package wire implements the CBOR request/response envelope that every
// authenticated worker (direct authenticator, token acceptor, credentials
// issuer) speaks over its secure channel.
package wire

import (
	"fmt"

	"github.com/meshauth/authority-core/internal/cborcodec"
)

// Method is the request verb. Workers only ever see these three.
type Method int

const (
	MethodPost Method = iota
	MethodGet
	MethodDelete
)

func (m Method) String() string {
	switch m {
	case MethodPost:
		return "POST"
	case MethodGet:
		return "GET"
	case MethodDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Status is the response outcome.
type Status int

const (
	StatusOK Status = iota
	StatusForbidden
	StatusInternalError
	StatusUnknownPath
)

// RequestHeader precedes an optional CBOR-encoded body on every request.
type RequestHeader struct {
	ID      uint64
	Method  Method
	Path    string
	HasBody bool
}

// Response is what every worker sends back.
type Response struct {
	ID     uint64
	Status Status
	Body   []byte
}

// OK builds a 200 response to req with no body.
func OK(req RequestHeader) Response {
	return Response{ID: req.ID, Status: StatusOK}
}

// OKWithBody builds a 200 response to req, CBOR-encoding body.
func OKWithBody(req RequestHeader, body interface{}) (Response, error) {
	b, err := cborcodec.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("wire: encode response body: %w", err)
	}
	return Response{ID: req.ID, Status: StatusOK, Body: b}, nil
}

// Forbidden builds a 403 response carrying msg as its body.
func Forbidden(req RequestHeader, msg string) Response {
	return Response{ID: req.ID, Status: StatusForbidden, Body: []byte(msg)}
}

// InternalError builds a 500 response carrying msg as its body.
func InternalError(req RequestHeader, msg string) Response {
	return Response{ID: req.ID, Status: StatusInternalError, Body: []byte(msg)}
}

// UnknownPath builds the catch-all response for unrecognized method/path
// combinations.
func UnknownPath(req RequestHeader) Response {
	return Response{ID: req.ID, Status: StatusUnknownPath}
}

// EncodeRequest serializes a header and, if present, the decoded body value
// immediately after it — mirroring the wire format a client assembles.
func EncodeRequest(header RequestHeader, body interface{}) ([]byte, error) {
	header.HasBody = body != nil
	out, err := cborcodec.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("wire: encode request header: %w", err)
	}
	if body == nil {
		return out, nil
	}
	encodedBody, err := cborcodec.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("wire: encode request body: %w", err)
	}
	return append(out, encodedBody...), nil
}

// RequestDecoder decodes a RequestHeader followed by its optional body from
// one CBOR byte stream, the way a worker decodes an incoming message.
type RequestDecoder struct {
	seq *cborcodec.SequenceDecoder
}

// DecodeRequestHeader decodes the leading RequestHeader and returns a
// decoder positioned after it for reading any body value.
func DecodeRequestHeader(data []byte) (RequestHeader, *RequestDecoder, error) {
	seq := cborcodec.NewSequenceDecoder(data)
	var header RequestHeader
	if err := seq.Decode(&header); err != nil {
		return header, nil, fmt.Errorf("wire: decode request header: %w", err)
	}
	return header, &RequestDecoder{seq: seq}, nil
}

// DecodeBody decodes the next CBOR value in the stream into v.
func (d *RequestDecoder) DecodeBody(v interface{}) error {
	if err := d.seq.Decode(v); err != nil {
		return fmt.Errorf("wire: decode request body: %w", err)
	}
	return nil
}

// Encode serializes a Response.
func Encode(r Response) ([]byte, error) {
	b, err := cborcodec.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("wire: encode response: %w", err)
	}
	return b, nil
}

// Decode deserializes a Response.
func Decode(data []byte) (Response, error) {
	var r Response
	if err := cborcodec.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("wire: decode response: %w", err)
	}
	return r, nil
}

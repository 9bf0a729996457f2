// Package cborcodec provides the one canonical CBOR handle used everywhere
// this module needs deterministic serialization: attribute maps (hashed and
// persisted), the Noise identity payload, and the wire request/response
// envelope. Canonical mode sorts map keys before encoding, which is what
// gives attribute maps their required deterministic form (spec §3/§6).
//
// This is the Go-ecosystem analogue of minicbor, which the original
// Rust implementation uses pervasively for the same three things.
package cborcodec

import "github.com/ugorji/go/codec"

func handle() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}

// Marshal encodes v as canonical CBOR.
func Marshal(v interface{}) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, handle())
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf, nil
}

// Unmarshal decodes CBOR-encoded data into v.
func Unmarshal(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, handle())
	return dec.Decode(v)
}

// SequenceDecoder decodes successive CBOR values out of one byte stream,
// the way the wire envelope packs a header immediately followed by an
// optional body value.
type SequenceDecoder struct {
	dec *codec.Decoder
}

// NewSequenceDecoder wraps data for sequential decoding.
func NewSequenceDecoder(data []byte) *SequenceDecoder {
	return &SequenceDecoder{dec: codec.NewDecoderBytes(data, handle())}
}

// Decode reads the next CBOR value in the stream into v.
func (d *SequenceDecoder) Decode(v interface{}) error {
	return d.dec.Decode(v)
}

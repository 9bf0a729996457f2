package identity

import (
	"sort"

	"github.com/meshauth/authority-core/internal/cborcodec"
)

// AttributeMap is an opaque key/value map attached to a member, a token, or
// a credential subject. Keys and values are byte-strings at the protocol
// level; Go strings (which are just byte sequences) carry them at the API
// boundary.
type AttributeMap map[string][]byte

// Clone returns a deep copy of m.
func (m AttributeMap) Clone() AttributeMap {
	out := make(AttributeMap, len(m))
	for k, v := range m {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Merge returns a new map containing m's entries overlaid with other's:
// on key conflict, other wins.
func (m AttributeMap) Merge(other AttributeMap) AttributeMap {
	out := m.Clone()
	for k, v := range other {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Keys returns the map's keys in sorted order, useful for deterministic
// iteration outside of serialization.
func (m AttributeMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalCanonicalCBOR encodes m deterministically: canonical CBOR mode
// sorts map keys before writing, which is the serialization contract §3
// and §6 require for attributes stored on disk or mixed into a signature.
func (m AttributeMap) MarshalCanonicalCBOR() ([]byte, error) {
	if m == nil {
		m = AttributeMap{}
	}
	return cborcodec.Marshal(map[string][]byte(m))
}

// UnmarshalAttributeMap decodes the canonical CBOR form produced by
// MarshalCanonicalCBOR.
func UnmarshalAttributeMap(data []byte) (AttributeMap, error) {
	var raw map[string][]byte
	if err := cborcodec.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string][]byte{}
	}
	return AttributeMap(raw), nil
}

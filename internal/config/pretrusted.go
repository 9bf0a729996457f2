package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/meshauth/authority-core/internal/identity"
	"github.com/meshauth/authority-core/internal/store"
)

// LoadPreTrusted reads the pre-trusted identities file: a UTF-8 JSON object
// mapping identifier text to an object of string attribute name/value
// pairs. Every entry becomes a pre-trusted Member with added_at set to now
// and added_by/expires_at left unset.
func LoadPreTrusted(path string) ([]store.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read pre-trusted identities: %w", err)
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse pre-trusted identities: %w", err)
	}

	now := time.Now()
	members := make([]store.Member, 0, len(raw))
	for idText, rawAttrs := range raw {
		id, err := identity.ParseIdentifier(idText)
		if err != nil {
			return nil, fmt.Errorf("config: pre-trusted identities: %w", err)
		}
		attrs := make(identity.AttributeMap, len(rawAttrs))
		for k, v := range rawAttrs {
			attrs[k] = []byte(v)
		}
		members = append(members, store.Member{
			Identifier:   id,
			Attributes:   attrs,
			AddedAt:      now,
			IsPreTrusted: true,
		})
	}
	return members, nil
}

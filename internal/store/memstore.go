package store

import (
	"sync"
	"time"

	"github.com/meshauth/authority-core/internal/identity"
)

// MemMemberStore is a goroutine-safe in-memory MemberStore, used in tests
// and by callers embedding this core without a SQLite dependency.
type MemMemberStore struct {
	mu      sync.Mutex
	members map[identity.Identifier]Member
}

func NewMemMemberStore() *MemMemberStore {
	return &MemMemberStore{members: make(map[identity.Identifier]Member)}
}

func (s *MemMemberStore) Get(id identity.Identifier) (*Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	m.Attributes = m.Attributes.Clone()
	return &m, nil
}

func (s *MemMemberStore) GetAll() ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Member, 0, len(s.members))
	for _, m := range s.members {
		m.Attributes = m.Attributes.Clone()
		out = append(out, m)
	}
	return out, nil
}

func (s *MemMemberStore) Add(m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Attributes = m.Attributes.Clone()
	s.members[m.Identifier] = m
	return nil
}

func (s *MemMemberStore) Delete(id identity.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[id]; ok && m.IsPreTrusted {
		return nil
	}
	delete(s.members, id)
	return nil
}

func (s *MemMemberStore) BootstrapPreTrusted(members []Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.members {
		if m.IsPreTrusted {
			delete(s.members, id)
		}
	}
	for _, m := range members {
		m.Attributes = m.Attributes.Clone()
		s.members[m.Identifier] = m
	}
	return nil
}

// MemTokenStore is a goroutine-safe in-memory TokenStore.
type MemTokenStore struct {
	mu     sync.Mutex
	tokens map[OneTimeCode]Token
}

func NewMemTokenStore() *MemTokenStore {
	return &MemTokenStore{tokens: make(map[OneTimeCode]Token)}
}

func (s *MemTokenStore) Issue(t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Attrs = t.Attrs.Clone()
	s.tokens[t.OneTimeCode] = t
	return nil
}

func (s *MemTokenStore) Use(code OneTimeCode, now time.Time) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.tokens, c)
		}
	}

	t, ok := s.tokens[code]
	if !ok {
		return nil, nil
	}
	observed := t
	observed.Attrs = observed.Attrs.Clone()

	if t.TTLCount <= 1 {
		delete(s.tokens, code)
	} else {
		t.TTLCount--
		s.tokens[code] = t
	}
	return &observed, nil
}

package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshauth/authority-core/internal/identity"
)

func newTestDB(t *testing.T) (*SQLMemberStore, *SQLTokenStore) {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	return NewSQLMemberStore(db), NewSQLTokenStore(db)
}

func TestSQLMemberStoreAddGetDelete(t *testing.T) {
	members, _ := newTestDB(t)
	id := randIdentifier(t)
	addedBy := randIdentifier(t)
	addedBy[0] = 0xEE

	m := Member{
		Identifier: id,
		Attributes: identity.AttributeMap{"role": []byte("enroller")},
		AddedBy:    &addedBy,
		AddedAt:    time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, members.Add(m))

	got, err := members.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, []byte("enroller"), got.Attributes["role"])
	require.NotNil(t, got.AddedBy)
	require.Equal(t, addedBy, *got.AddedBy)
	require.True(t, got.AddedAt.Equal(m.AddedAt))
	require.Nil(t, got.ExpiresAt)

	require.NoError(t, members.Delete(id))
	got, err = members.Get(id)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestSQLMemberStoreColumnBindingDoesNotSwapFields guards the column-order
// regression: added_by must never land in the attributes column or vice
// versa, regardless of how many optional columns are nil.
func TestSQLMemberStoreColumnBindingDoesNotSwapFields(t *testing.T) {
	members, _ := newTestDB(t)
	id := randIdentifier(t)

	m := Member{
		Identifier: id,
		Attributes: identity.AttributeMap{"k": []byte("v")},
		AddedBy:    nil,
		AddedAt:    time.Unix(1700000000, 0).UTC(),
		IsPreTrusted: true,
	}
	require.NoError(t, members.Add(m))

	got, err := members.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Nil(t, got.AddedBy)
	require.True(t, got.IsPreTrusted)
	require.Equal(t, []byte("v"), got.Attributes["k"])
}

func TestSQLMemberStorePreTrustedImmuneToDelete(t *testing.T) {
	members, _ := newTestDB(t)
	id := randIdentifier(t)
	require.NoError(t, members.Add(Member{Identifier: id, IsPreTrusted: true, AddedAt: time.Now()}))

	require.NoError(t, members.Delete(id))

	got, err := members.Get(id)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestSQLMemberStoreBootstrapReplacesPreTrustedOnly(t *testing.T) {
	members, _ := newTestDB(t)
	manual := randIdentifier(t)
	manual[0] = 0xAA
	require.NoError(t, members.Add(Member{Identifier: manual, AddedAt: time.Now()}))

	old := randIdentifier(t)
	old[0] = 0xBB
	require.NoError(t, members.Add(Member{Identifier: old, IsPreTrusted: true, AddedAt: time.Now()}))

	fresh := randIdentifier(t)
	fresh[0] = 0xCC
	require.NoError(t, members.BootstrapPreTrusted([]Member{{Identifier: fresh, IsPreTrusted: true, AddedAt: time.Now()}}))

	all, err := members.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := members.Get(old)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSQLTokenStoreTTLOneIsOneShot(t *testing.T) {
	_, tokens := newTestDB(t)
	code := NewOneTimeCode()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tokens.Issue(Token{
		OneTimeCode: code,
		IssuedBy:    randIdentifier(t),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
		TTLCount:    1,
	}))

	tok, err := tokens.Use(code, now)
	require.NoError(t, err)
	require.NotNil(t, tok)

	tok, err = tokens.Use(code, now)
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestSQLTokenStoreDecrementsAcrossUses(t *testing.T) {
	_, tokens := newTestDB(t)
	code := NewOneTimeCode()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tokens.Issue(Token{
		OneTimeCode: code,
		IssuedBy:    randIdentifier(t),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
		TTLCount:    2,
	}))

	first, err := tokens.Use(code, now)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := tokens.Use(code, now)
	require.NoError(t, err)
	require.NotNil(t, second)

	third, err := tokens.Use(code, now)
	require.NoError(t, err)
	require.Nil(t, third)
}

func TestSQLTokenStoreExpiredNeverSucceeds(t *testing.T) {
	_, tokens := newTestDB(t)
	code := NewOneTimeCode()
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tokens.Issue(Token{
		OneTimeCode: code,
		IssuedBy:    randIdentifier(t),
		CreatedAt:   issuedAt,
		ExpiresAt:   issuedAt.Add(time.Second),
		TTLCount:    5,
	}))

	tok, err := tokens.Use(code, issuedAt.Add(2*time.Second))
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestSQLTokenStoreConcurrentUseSerializes(t *testing.T) {
	_, tokens := newTestDB(t)
	code := NewOneTimeCode()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	const ttl = 10
	require.NoError(t, tokens.Issue(Token{
		OneTimeCode: code,
		IssuedBy:    randIdentifier(t),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
		TTLCount:    ttl,
	}))

	var successes int64
	var wg sync.WaitGroup
	for i := 0; i < ttl*3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := tokens.Use(code, now)
			require.NoError(t, err)
			if tok != nil {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, ttl, successes)
}

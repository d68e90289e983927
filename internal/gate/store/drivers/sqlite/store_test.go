package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "gate.db"), slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestProfileStore(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	p := s.Profile("default")
	require.Equal(t, "default", p.Name())

	_, ok := p.Get(store.AccessCredential)
	require.False(t, ok)

	store.SetPair(p, "A1", "R1")
	v, ok := p.Get(store.AccessCredential)
	require.True(t, ok)
	require.Equal(t, "A1", v)

	// Upsert replaces the value.
	p.Set(store.AccessCredential, "A2", time.Hour)
	v, _ = p.Get(store.AccessCredential)
	require.Equal(t, "A2", v)

	// Profiles are independent.
	_, ok = s.Profile("other").Get(store.AccessCredential)
	require.False(t, ok)

	store.ClearAll(p)
	_, ok = p.Get(store.RefreshCredential)
	require.False(t, ok)
}

func TestProfileStore_Expiry(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	now := time.Unix(1_700_000_000, 0)
	s.Now = func() time.Time { return now }

	p := s.Profile("default")
	p.Set(store.AccessCredential, "A", time.Minute)
	p.Set(store.RefreshCredential, "R", time.Hour)

	profiles, err := s.Profiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"default"}, profiles)

	now = now.Add(2 * time.Minute)
	_, ok := p.Get(store.AccessCredential)
	require.False(t, ok)
	_, ok = p.Get(store.RefreshCredential)
	require.True(t, ok)

	n, err := s.DeleteExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestProfileStore_ClosedDatabaseReadsAbsent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	p := s.Profile("default")
	p.Set(store.AccessCredential, "A", time.Hour)

	require.NoError(t, s.Close())

	_, ok := p.Get(store.AccessCredential)
	require.False(t, ok)
	require.NotPanics(t, func() { p.Clear(store.AccessCredential) })
}

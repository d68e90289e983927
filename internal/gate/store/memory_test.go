package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore()
	s.Now = func() time.Time { return now }

	_, ok := s.Get(AccessCredential)
	require.False(t, ok)

	SetPair(s, "A", "R")
	v, ok := s.Get(AccessCredential)
	require.True(t, ok)
	require.Equal(t, "A", v)

	s.Clear(AccessCredential)
	_, ok = s.Get(AccessCredential)
	require.False(t, ok)

	v, ok = s.Get(RefreshCredential)
	require.True(t, ok)
	require.Equal(t, "R", v)

	ClearAll(s)
	_, ok = s.Get(RefreshCredential)
	require.False(t, ok)
}

func TestMemoryStore_MaxAge(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore()
	s.Now = func() time.Time { return now }

	s.Set(AccessCredential, "A", time.Minute)

	now = now.Add(59 * time.Second)
	_, ok := s.Get(AccessCredential)
	require.True(t, ok)

	now = now.Add(time.Second)
	_, ok = s.Get(AccessCredential)
	require.False(t, ok)

	s.Set(AccessCredential, "B", 0)
	_, ok = s.Get(AccessCredential)
	require.False(t, ok)
}

package policy

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, initial string) (string, *Holder, *atomic.Int32) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	holder := NewHolder(p)

	var reloads atomic.Int32
	w := NewWatcher(path, holder, slogx.Discard())
	w.Debounce = 20 * time.Millisecond
	w.OnReload = func(error) { reloads.Add(1) }
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)

	return path, holder, &reloads
}

func TestWatcher_Reloads(t *testing.T) {
	t.Parallel()

	path, holder, _ := startWatcher(t, "required_roles: [ADMIN]\n")
	require.Equal(t, []string{"ADMIN"}, holder.Load().RequiredRoles)

	require.NoError(t, os.WriteFile(path, []byte("required_roles: [MANAGER]\n"), 0o600))

	require.Eventually(t, func() bool {
		return holder.Load().Authorized([]string{"MANAGER"})
	}, 5*time.Second, 10*time.Millisecond)
	require.False(t, holder.Load().Authorized([]string{"ADMIN"}))
}

func TestWatcher_RejectsInvalid(t *testing.T) {
	t.Parallel()

	path, holder, reloads := startWatcher(t, "required_roles: [ADMIN]\n")
	before := holder.Load()

	require.NoError(t, os.WriteFile(path, []byte("required_roles: []\n"), 0o600))

	require.Eventually(t, func() bool {
		return reloads.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)
	require.Same(t, before, holder.Load())
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	t.Parallel()

	path, holder, reloads := startWatcher(t, "required_roles: [ADMIN]\n")
	before := holder.Load()

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	require.NoError(t, os.WriteFile(sibling, []byte("required_roles: [X]\n"), 0o600))

	time.Sleep(150 * time.Millisecond)
	require.Zero(t, reloads.Load())
	require.Same(t, before, holder.Load())
}

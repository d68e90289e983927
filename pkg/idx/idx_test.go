package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = idx.Parse("not-a-ulid")
	require.ErrorIs(t, err, idx.ErrInvalid)

	_, err = idx.Parse("  ")
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.Now().UTC()
	a := idx.NewAt(at)
	b := idx.NewAt(at)
	require.Less(t, a.String(), b.String())
}

func TestTimeExtraction(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123).UTC()
	require.True(t, idx.NewAt(at).Time().Equal(at))
	require.True(t, idx.ID("garbage").Time().IsZero())
}

func TestFromHeader(t *testing.T) {
	known := idx.New()
	require.Equal(t, known, idx.FromHeader(known.String()))

	fresh := idx.FromHeader("<script>")
	require.False(t, fresh.IsZero())
	require.NotEqual(t, "<script>", fresh.String())
}

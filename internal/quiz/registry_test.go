package quiz

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinTrimsName(t *testing.T) {
	r := NewRegistry(func() time.Time { return fixedNow })
	conn := uuid.New()

	p, err := r.Join(conn, "  Alice \t")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, conn, p.ConnectionID)
	assert.Equal(t, fixedNow, p.JoinedAt)
	assert.NotEqual(t, uuid.Nil, p.ID)

	got, ok := r.Lookup(conn)
	require.True(t, ok)
	assert.Equal(t, p, got)

	byID, ok := r.ByID(p.ID)
	require.True(t, ok)
	assert.Equal(t, p, byID)
}

func TestRegistry_JoinRejectsBadNames(t *testing.T) {
	r := NewRegistry(nil)

	cases := map[string]string{
		"empty":    "",
		"blank":    "   ",
		"too long": strings.Repeat("x", MaxNameLength+1),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Join(uuid.New(), input)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_JoinTwiceOnSameConnection(t *testing.T) {
	r := NewRegistry(nil)
	conn := uuid.New()

	_, err := r.Join(conn, "Alice")
	require.NoError(t, err)
	_, err = r.Join(conn, "Alice again")
	assert.True(t, IsValidation(err))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_AssignsDistinctIdentities(t *testing.T) {
	r := NewRegistry(nil)

	a, err := r.Join(uuid.New(), "Sam")
	require.NoError(t, err)
	b, err := r.Join(uuid.New(), "Sam")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegistry_RemoveAndOrder(t *testing.T) {
	r := NewRegistry(nil)
	c1, c2, c3 := uuid.New(), uuid.New(), uuid.New()
	for i, c := range []uuid.UUID{c1, c2, c3} {
		_, err := r.Join(c, []string{"a", "b", "c"}[i])
		require.NoError(t, err)
	}

	removed, ok := r.Remove(c2)
	require.True(t, ok)
	assert.Equal(t, "b", removed.Name)
	_, ok = r.ByID(removed.ID)
	assert.False(t, ok)

	_, ok = r.Remove(c2)
	assert.False(t, ok)

	names := []string{}
	for _, p := range r.All() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

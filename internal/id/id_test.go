package id

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestPrefixed(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	p := Prefixed("POS")
	require.True(t, strings.HasPrefix(p, "pos_"))
	assert.Len(t, p, len("pos_")+26)

	u, err := ulid.ParseStrict(strings.TrimPrefix(p, "pos_"))
	require.NoError(t, err)
	assert.True(t, ulid.Time(u.Time()).After(before))
}

func TestNewAtStampsTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u, err := ulid.ParseStrict(NewAt(at))
	require.NoError(t, err)
	assert.True(t, ulid.Time(u.Time()).Equal(at))
}

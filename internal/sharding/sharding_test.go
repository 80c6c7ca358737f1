package sharding

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetShardIsStableAndInRange(t *testing.T) {
	t.Parallel()

	r := NewShardRouter(3)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("ORD-%08x", i)
		idx := r.GetShard(key)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 3)
		require.Equal(t, idx, r.GetShard(key))
		seen[idx] = true
	}
	require.Len(t, seen, 3)
}

func TestNewShardRouterClampsCount(t *testing.T) {
	t.Parallel()

	r := NewShardRouter(0)
	require.Equal(t, 1, r.ShardCount)
	require.Equal(t, 0, r.GetShard("ORD-anything"))
}

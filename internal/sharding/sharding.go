package sharding

import "github.com/cespare/xxhash/v2"

// PrimaryShard holds the tables that are not partitioned, such as users.
const PrimaryShard = 0

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard hashes an order id onto a shard index. The mapping only depends on the
// key and the shard count.
func (r *ShardRouter) GetShard(key string) int {
	return int(xxhash.Sum64String(key) % uint64(r.ShardCount))
}

package util

import (
	"math/bits"
	"runtime"
)

const maxShards = 256

// NextPow2 returns the smallest power of two >= x, or 1<<63 when that
// would overflow.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	n := bits.Len64(x - 1)
	if n == 64 {
		return 1 << 63
	}
	return 1 << n
}

// ShardCount normalizes a requested shard count: n <= 0 picks
// 2*GOMAXPROCS, and the result is a power of two in [1, 256].
func ShardCount(n int) int {
	if n <= 0 {
		n = 2 * runtime.GOMAXPROCS(0)
	}
	return int(NextPow2(uint64(min(n, maxShards))))
}

// ShardIndex maps a hash onto one of shards buckets. shards must come from
// ShardCount.
func ShardIndex(hash uint64, shards int) int {
	return int(hash & uint64(shards-1))
}

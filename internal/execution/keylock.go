package execution

import (
	"hash/fnv"
	"sync"
)

// keyLock 按幂等键串行化 submit 的检查-记录窗口：两个并发的重复信号
// 不能同时通过"未见过"检查。check-then-act 必须在同一把键锁内完成。
type keyLock struct {
	shards [64]sync.Mutex
}

// Lock 锁住 key 所在的分片，返回解锁函数。
// 不同键可能哈希到同一分片（偶发串行化，无正确性影响）。
func (l *keyLock) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.shards[int(h.Sum32())%len(l.shards)]
	mu.Lock()
	return mu.Unlock
}

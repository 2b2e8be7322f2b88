package execution

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// DefaultKeyTTL 幂等键默认有效期。过期键视同不存在，可被重用。
const DefaultKeyTTL = 24 * time.Hour

// IdempotencyKey 由信号身份字段确定性派生。同元组（无论 size/price 是否不同）
// 即视为重复提交：一个未过期的键至多对应一笔订单。
func IdempotencyKey(sig *domain.Signal) string {
	return fmt.Sprintf("%s:%s:%s:%s", sig.Strategy, sig.MarketID, sig.OutcomeID, sig.Action)
}

// MemoryKeyStore 进程内幂等键存储（分片 map + TTL，访问时惰性清理）。
//
// 只适用于单进程、不要求持久化的场景（测试/演示）；
// 生产环境用持久化实现（sqlite/badger），契约相同。
type MemoryKeyStore struct {
	shards []memKeyShard
}

type memKeyShard struct {
	mu sync.Mutex
	m  map[string]time.Time // key -> expiresAt
}

// NewMemoryKeyStore 创建进程内幂等键存储。
func NewMemoryKeyStore() *MemoryKeyStore {
	shards := make([]memKeyShard, 64)
	for i := range shards {
		shards[i].m = make(map[string]time.Time)
	}
	return &MemoryKeyStore{shards: shards}
}

// Seen 查键是否存在且未过期。先清理本分片的过期项再做成员判断：
// 过期键必须与从未见过的键不可区分。
func (s *MemoryKeyStore) Seen(_ context.Context, key string) (bool, error) {
	now := time.Now()
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for k, exp := range sh.m {
		if !exp.After(now) {
			delete(sh.m, k)
		}
	}
	exp, ok := sh.m[key]
	return ok && exp.After(now), nil
}

// Add 记录键（upsert：覆盖任何残留的过期条目）。
func (s *MemoryKeyStore) Add(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	sh := s.shard(key)
	sh.mu.Lock()
	sh.m[key] = time.Now().Add(ttl)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryKeyStore) shard(key string) *memKeyShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.shards[int(h.Sum32())%len(s.shards)]
}

// Package syncutil provides context-aware keyed locks.
package syncutil

import (
	"context"
	"hash/fnv"
	"sync"
)

const shardCount = 256

// KeyedMutex serializes work per key using a fixed pool of channel-based
// mutexes. Distinct keys may share a shard, which only costs throughput.
type KeyedMutex struct {
	shards [shardCount]chanMutex
	once   sync.Once
}

type chanMutex struct {
	ch chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	m := &KeyedMutex{}
	m.init()
	return m
}

func (m *KeyedMutex) init() {
	m.once.Do(func() {
		for i := range m.shards {
			m.shards[i].ch = make(chan struct{}, 1)
			m.shards[i].ch <- struct{}{}
		}
	})
}

// LockContext acquires the lock for key or returns ctx.Err(). On success the
// caller must invoke the returned unlock func exactly once.
func (m *KeyedMutex) LockContext(ctx context.Context, key string) (func(), error) {
	m.init()
	shard := &m.shards[shardIdx(key)]

	select {
	case <-shard.ch:
		var once sync.Once
		return func() { once.Do(func() { shard.ch <- struct{}{} }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardIdx(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}

// Package cache holds per-identity state in bounded, sharded LRU maps.
// Entries with unflushed writes are pinned until their write lands, so
// eviction never loses an update that has not reached the backend.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCapacity is used when a non-positive capacity is configured.
const DefaultCapacity = 10000

const shardCount = 32

// Entry is one cached value. Callers hold Lock while reading or changing
// Value, Loaded and Synced.
type Entry[V any] struct {
	mu      sync.Mutex
	Value   V
	Loaded  bool
	Synced  time.Time
	version uint64
	saved   uint64

	// flushMu serializes backend writes for this key.
	flushMu sync.Mutex
	// refs is guarded by the owning shard's mutex.
	refs int
}

func (e *Entry[V]) Lock()   { e.mu.Lock() }
func (e *Entry[V]) Unlock() { e.mu.Unlock() }

// Touch marks Value as changed since the last flush. Caller holds Lock.
func (e *Entry[V]) Touch() { e.version++ }

// Dirty reports whether Value has changes the backend has not seen. Caller
// holds Lock.
func (e *Entry[V]) Dirty() bool { return e.version != e.saved }

// Flush writes the latest Value with save unless it is already stored.
// Concurrent flushes of one entry run one at a time, so the backend never
// sees an older value after a newer one.
func (e *Entry[V]) Flush(ctx context.Context, save func(context.Context, V) error) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	e.mu.Lock()
	if !e.Dirty() {
		e.mu.Unlock()
		return nil
	}
	v, ver := e.Value, e.version
	e.mu.Unlock()

	if err := save(ctx, v); err != nil {
		return err
	}

	e.mu.Lock()
	if ver > e.saved {
		e.saved = ver
	}
	e.mu.Unlock()
	return nil
}

type shard[V any] struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[string, *Entry[V]]
	pinned map[string]*Entry[V]
}

// Map is safe for concurrent use.
type Map[V any] struct {
	shards [shardCount]*shard[V]
}

// New returns a Map holding roughly capacity unreferenced entries.
func New[V any](capacity int) *Map[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	per := capacity / shardCount
	if per < 1 {
		per = 1
	}
	m := &Map[V]{}
	for i := range m.shards {
		sh := &shard[V]{pinned: make(map[string]*Entry[V])}
		// runs under sh.mu: every LRU call below is made with it held
		lru, err := simplelru.NewLRU[string, *Entry[V]](per, func(key string, e *Entry[V]) {
			if e.refs > 0 {
				sh.pinned[key] = e
			}
		})
		if err != nil {
			panic(err)
		}
		sh.lru = lru
		m.shards[i] = sh
	}
	return m
}

func (m *Map[V]) shard(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%shardCount]
}

// Acquire returns the entry for key, creating an empty one if needed, and
// keeps it resident until the matching Release.
func (m *Map[V]) Acquire(key string) *Entry[V] {
	sh := m.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.lru.Get(key)
	if !ok {
		if p, found := sh.pinned[key]; found {
			e = p
			delete(sh.pinned, key)
		} else {
			e = &Entry[V]{}
		}
		sh.lru.Add(key, e)
	}
	e.refs++
	return e
}

// Release drops one reference taken by Acquire.
func (m *Map[V]) Release(key string, e *Entry[V]) {
	sh := m.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e.refs--
	if e.refs == 0 && sh.pinned[key] == e {
		delete(sh.pinned, key)
	}
}

// Peek returns the entry for key without creating it or refreshing its
// recency.
func (m *Map[V]) Peek(key string) (*Entry[V], bool) {
	sh := m.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.lru.Peek(key); ok {
		return e, true
	}
	e, ok := sh.pinned[key]
	return e, ok
}

// Len counts resident entries, pinned ones included.
func (m *Map[V]) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		n += sh.lru.Len() + len(sh.pinned)
		sh.mu.Unlock()
	}
	return n
}

// Pending is a reference held for a queued write. Exactly one of Flush or
// Release should be called; extra calls are no-ops.
type Pending[V any] struct {
	m     *Map[V]
	key   string
	entry *Entry[V]
	save  func(context.Context, V) error
	once  sync.Once
}

// NewPending hands the caller's reference on e over to a Pending that
// writes through save.
func (m *Map[V]) NewPending(key string, e *Entry[V], save func(context.Context, V) error) *Pending[V] {
	return &Pending[V]{m: m, key: key, entry: e, save: save}
}

// Flush writes the entry's latest value and drops the reference.
func (p *Pending[V]) Flush(ctx context.Context) error {
	defer p.Release()
	return p.entry.Flush(ctx, p.save)
}

// Release drops the reference without writing.
func (p *Pending[V]) Release() {
	p.once.Do(func() { p.m.Release(p.key, p.entry) })
}

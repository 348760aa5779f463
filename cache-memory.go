package oioproxy

import "time"

// memoryCacheBackend is the default CacheBackend: an in-memory,
// insertion-ordered entryList. Adapted from the teacher's memoryBackend
// (cache-memory.go), which paired a doubly linked list with a map the
// same way; unlike the teacher's backend this one carries no file
// persistence, since the proxy holds no durable state (spec §3
// Non-goals: "the proxy stores no durable state").
type memoryCacheBackend struct {
	list *entryList
}

var _ CacheBackend = (*memoryCacheBackend)(nil)

func newMemoryCacheBackend(max int) *memoryCacheBackend {
	return &memoryCacheBackend{list: newEntryList(max)}
}

func (b *memoryCacheBackend) Get(key string) ([]string, bool) {
	return b.list.get(key)
}

func (b *memoryCacheBackend) Put(key string, value []string, now time.Time) {
	b.list.put(key, value, now)
}

// Expire removes every entry whose insertion clock is at least ttl in
// the past, walking from the oldest entry (spec §4.1 "expire" pass).
func (b *memoryCacheBackend) Expire(now time.Time, ttl time.Duration) int {
	return b.list.deleteFunc(func(_ string, insertedAt time.Time) bool {
		return now.Sub(insertedAt) >= ttl
	})
}

// Purge re-applies max as the list's size bound and evicts down to it.
func (b *memoryCacheBackend) Purge(now time.Time, max int) int {
	b.list.maxItems = max
	return b.list.resize()
}

func (b *memoryCacheBackend) Flush() {
	b.list.reset()
}

func (b *memoryCacheBackend) Decache(key string) bool {
	return b.list.delete(key)
}

func (b *memoryCacheBackend) Size() int {
	return b.list.size()
}

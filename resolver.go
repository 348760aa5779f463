package oioproxy

import (
	"context"
	"sync"
	"time"
)

// Resolver is the two-tier cache from spec §4.2: a high tier ("csm0")
// mapping namespace -> directory server addresses, and a low tier
// ("services") mapping (namespace, reference, type) -> backend
// addresses. Both tiers are independent bounded TTL Caches with their
// own TTL and max.
type Resolver struct {
	high      *Cache
	low       *Cache
	directory DirectoryClient
	now       func() time.Time

	mu         sync.Mutex
	knownTypes map[string]map[string]struct{} // "namespace/reference" -> set of resolved service types
}

// ResolverOptions configures the two tiers' bounds independently.
type ResolverOptions struct {
	HighTTL, LowTTL time.Duration
	HighMax, LowMax int
	HighBackend     CacheBackend
	LowBackend      CacheBackend
}

// NewResolver returns a Resolver backed by directory for upstream
// lookups on both tiers' misses.
func NewResolver(directory DirectoryClient, opt ResolverOptions) *Resolver {
	return &Resolver{
		high:       NewCache("csm0", opt.HighTTL, opt.HighMax, opt.HighBackend),
		low:        NewCache("services", opt.LowTTL, opt.LowMax, opt.LowBackend),
		directory:  directory,
		now:        time.Now,
		knownTypes: make(map[string]map[string]struct{}),
	}
}

// SetClock overrides the monotonic clock used to stamp cache insertions,
// for test determinism (spec §4.2).
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// ResolveDirectory returns the directory server addresses for url's
// namespace: a high-tier cache hit, or a discovery call on miss followed
// by an insert (spec §4.2).
func (r *Resolver) ResolveDirectory(ctx context.Context, url *LogicalURL) ([]string, error) {
	key := url.CacheKeyNamespace()
	if addrs, ok := r.high.Get(key); ok {
		return addrs, nil
	}
	addrs, err := r.directory.ResolveNamespace(ctx, url.Namespace)
	if err != nil {
		return nil, TransportError("csm0", err)
	}
	if len(addrs) == 0 {
		return nil, ErrContainerNotFound(url.Reference)
	}
	if err := r.high.Put(key, addrs, r.now()); err != nil {
		return nil, ErrInternal(err)
	}
	return addrs, nil
}

// ResolveService returns the backend addresses of svcType for
// (namespace, reference): a low-tier cache hit, or on miss, a directory
// resolution followed by a directory query and a low-tier insert (spec
// §4.2).
func (r *Resolver) ResolveService(ctx context.Context, url *LogicalURL, svcType string) ([]string, error) {
	key := url.CacheKeyReference(svcType)
	if addrs, ok := r.low.Get(key); ok {
		return addrs, nil
	}
	directories, err := r.ResolveDirectory(ctx, url)
	if err != nil {
		return nil, err
	}
	addrs, err := r.directory.ResolveServices(ctx, directories, url.Namespace, url.Reference, svcType)
	if err != nil {
		return nil, TransportError("services", err)
	}
	if err := r.low.Put(key, addrs, r.now()); err != nil {
		return nil, ErrInternal(err)
	}
	r.markKnownType(url, svcType)
	return addrs, nil
}

func (r *Resolver) markKnownType(url *LogicalURL, svcType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refKey := url.Namespace + "/" + url.Reference
	types, ok := r.knownTypes[refKey]
	if !ok {
		types = make(map[string]struct{})
		r.knownTypes[refKey] = types
	}
	types[svcType] = struct{}{}
}

// DecacheService removes the cached low-tier entry for (url, svcType).
func (r *Resolver) DecacheService(url *LogicalURL, svcType string) {
	r.low.Decache(url.CacheKeyReference(svcType))
}

// DecacheReference removes every service-type entry ever cached for
// url's reference, cascading across every known type (spec §4.2:
// "decache_reference must cascade removal across every service-type for
// that reference"; spec §8 property 3).
func (r *Resolver) DecacheReference(url *LogicalURL) {
	refKey := url.Namespace + "/" + url.Reference
	r.mu.Lock()
	types := r.knownTypes[refKey]
	delete(r.knownTypes, refKey)
	r.mu.Unlock()
	for svcType := range types {
		r.low.Decache(url.CacheKeyReference(svcType))
	}
}

// Expire forwards an expire pass to both tiers.
func (r *Resolver) Expire(now time.Time) (highEvicted, lowEvicted int) {
	return r.high.Expire(now), r.low.Expire(now)
}

// Purge forwards a purge pass to both tiers.
func (r *Resolver) Purge(now time.Time) (highEvicted, lowEvicted int) {
	return r.high.Purge(now), r.low.Purge(now)
}

// FlushHigh and FlushLow clear one tier.
func (r *Resolver) FlushHigh() { r.high.Flush() }
func (r *Resolver) FlushLow()  { r.low.Flush() }

// Info returns both tiers' statistics.
func (r *Resolver) Info() (high, low CacheStats) {
	return r.high.Info(), r.low.Info()
}

// HighCache and LowCache expose the underlying tiers for the /cache
// tuning endpoints (spec §6: set ttl/max high/low).
func (r *Resolver) HighCache() *Cache { return r.high }
func (r *Resolver) LowCache() *Cache  { return r.low }

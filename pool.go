package oioproxy

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// IteratorVariant selects the policy a Pool.NextSet call uses to choose
// among live services (spec §4.4).
type IteratorVariant int

const (
	IterDefault IteratorVariant = iota
	IterRoundRobin
	IterWeightedRoundRobin
	IterRandom
	IterWeightedRandom
)

// NextSetOptions constrains the services NextSet is allowed to return
// (spec §4.4: "required distance >= 1..., no duplicates, optional
// storage-class match, optional strict-class flag, optional pre-filter
// predicate").
type NextSetOptions struct {
	Max          int
	Distance     int    // minimum distance required between chosen hosts; default 1
	StorageClass string // optional storage-class match (tag "stgcls")
	StrictClass  bool   // require an exact storage-class match rather than tolerating unset
	Predicate    func(ServiceDescriptor) bool
}

// Pool holds a live snapshot of services for one service-type and hands
// out subsets per the requested iterator variant. Grounded in the
// teacher's resolver-group family (roundrobin.go, random.go), which
// picks among a list of child resolvers the same way Pool picks among
// service addresses.
type Pool struct {
	svcType    string
	conscience ConscienceClient

	mu     sync.RWMutex
	live   []ServiceDescriptor
	rrNext int
}

func NewPool(svcType string, conscience ConscienceClient) *Pool {
	return &Pool{svcType: svcType, conscience: conscience}
}

// Reload asks the conscience for the current set of live services of
// this pool's type and atomically replaces the snapshot (spec §4.4).
func (p *Pool) Reload(ctx context.Context) error {
	services, err := p.conscience.ListServices(ctx, p.svcType)
	if err != nil {
		return TransportError("conscience", err)
	}
	p.mu.Lock()
	p.live = services
	p.mu.Unlock()
	return nil
}

func (p *Pool) snapshot() []ServiceDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ServiceDescriptor, len(p.live))
	copy(out, p.live)
	return out
}

// NextSet selects up to opt.Max services meeting the given constraints,
// ordered by variant's selection policy, returning ErrPolicyNotSatisfiable
// if the constraints cannot be met (spec §4.4).
func (p *Pool) NextSet(variant IteratorVariant, opt NextSetOptions) ([]ServiceDescriptor, error) {
	if opt.Max <= 0 {
		opt.Max = 1
	}
	if opt.Distance <= 0 {
		opt.Distance = 1
	}

	candidates := filterByOptions(p.snapshot(), opt)
	if len(candidates) == 0 {
		return nil, ErrPolicyNotSatisfiable(fmt.Sprintf("no service of type %q matches constraints", p.svcType))
	}

	var ordered []ServiceDescriptor
	switch variant {
	case IterWeightedRoundRobin:
		ordered = orderWeighted(candidates)
	case IterRandom:
		ordered = orderRandom(candidates)
	case IterWeightedRandom:
		ordered = orderWeighted(candidates)
	default: // IterDefault, IterRoundRobin
		ordered = p.orderRoundRobin(candidates)
	}

	return pickDistinct(ordered, opt)
}

func filterByOptions(candidates []ServiceDescriptor, opt NextSetOptions) []ServiceDescriptor {
	var out []ServiceDescriptor
	for _, c := range candidates {
		if c.Score == ScoreLocked {
			continue
		}
		if opt.Predicate != nil && !opt.Predicate(c) {
			continue
		}
		if opt.StorageClass != "" {
			class, ok := c.TagString(OptStorageClass)
			if opt.StrictClass {
				if !ok || class != opt.StorageClass {
					continue
				}
			} else if ok && class != opt.StorageClass {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// pickDistinct walks ordered and selects up to opt.Max services whose
// hosts are pairwise at least opt.Distance apart (no duplicate hosts
// within the distance window).
func pickDistinct(ordered []ServiceDescriptor, opt NextSetOptions) ([]ServiceDescriptor, error) {
	var selected []ServiceDescriptor
	lastIndexForHost := make(map[string]int)
	for _, c := range ordered {
		if len(selected) >= opt.Max {
			break
		}
		host := hostOf(c.Addr)
		if idx, ok := lastIndexForHost[host]; ok && len(selected)-idx < opt.Distance {
			continue
		}
		selected = append(selected, c)
		lastIndexForHost[host] = len(selected)
	}
	if len(selected) < opt.Max {
		return nil, ErrPolicyNotSatisfiable(fmt.Sprintf("could not assemble %d distinct services (got %d)", opt.Max, len(selected)))
	}
	return selected, nil
}

func hostOf(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}

// PoolSet manages one Pool per service-type, created lazily on first
// use and refreshed together by the downstream task queue (spec
// §4.3/§4.4).
type PoolSet struct {
	mu         sync.Mutex
	pools      map[string]*Pool
	conscience ConscienceClient
}

func NewPoolSet(conscience ConscienceClient) *PoolSet {
	return &PoolSet{pools: make(map[string]*Pool), conscience: conscience}
}

// Pool returns (creating if necessary) the Pool for svcType.
func (s *PoolSet) Pool(svcType string) *Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[svcType]
	if !ok {
		p = NewPool(svcType, s.conscience)
		s.pools[svcType] = p
	}
	return p
}

// Reload refreshes every pool for the given service types.
func (s *PoolSet) Reload(ctx context.Context, types []string) error {
	for _, t := range types {
		if err := s.Pool(t).Reload(ctx); err != nil {
			return err
		}
	}
	return nil
}

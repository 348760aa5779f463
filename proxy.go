package oioproxy

import (
	"context"
	"time"
)

// Proxy binds every moving part of the request path: the two-tier
// resolver, the per-service-type load-balancer pools, the outbound
// collaborators, the registration push queue, the namespace/service-type
// snapshot, and the three named task queues driving their periodic
// upkeep (spec §1, §4). It is the receiver every HTTP handler closes
// over, analogous to the teacher's top-level Config tying listeners to
// resolvers in cmd/routedns/config.go.
type Proxy struct {
	Resolver   *Resolver
	Pools      *PoolSet
	Push       *PushQueue
	Namespace  *NamespaceConfig
	Directory  DirectoryClient
	Conscience ConscienceClient
	DirBackend DirBackend
	Meta2      Meta2Backend

	AdminQueue      *TaskQueue
	UpstreamQueue   *TaskQueue
	DownstreamQueue *TaskQueue
}

// ProxyOptions configures the periodic task intervals wired into the
// three named queues (spec §4.3).
type ProxyOptions struct {
	CacheExpireInterval  time.Duration
	CachePurgeInterval   time.Duration
	PushDrainInterval    time.Duration
	PoolReloadInterval   time.Duration
	NamespaceReloadEvery time.Duration
}

func (o *ProxyOptions) setDefaults() {
	if o.CacheExpireInterval <= 0 {
		o.CacheExpireInterval = 5 * time.Second
	}
	if o.CachePurgeInterval <= 0 {
		o.CachePurgeInterval = 5 * time.Second
	}
	if o.PushDrainInterval <= 0 {
		o.PushDrainInterval = time.Second
	}
	if o.PoolReloadInterval <= 0 {
		o.PoolReloadInterval = 10 * time.Second
	}
	if o.NamespaceReloadEvery <= 0 {
		o.NamespaceReloadEvery = 30 * time.Second
	}
}

// NewProxy wires a Proxy from its collaborators and registers the
// background upkeep tasks on the admin/upstream/downstream queues, per
// spec §4.3 ("three named queues: admin, upstream, downstream").
// Callers must still call Start to launch the background loops.
func NewProxy(directory DirectoryClient, conscience ConscienceClient, dir DirBackend, meta2 Meta2Backend, resolverOpt ResolverOptions, opt ProxyOptions) *Proxy {
	opt.setDefaults()

	p := &Proxy{
		Resolver:        NewResolver(directory, resolverOpt),
		Pools:           NewPoolSet(conscience),
		Push:            NewPushQueue("registration", conscience),
		Namespace:       NewNamespaceConfig(conscience),
		Directory:       directory,
		Conscience:      conscience,
		DirBackend:      dir,
		Meta2:           meta2,
		AdminQueue:      NewTaskQueue("admin"),
		UpstreamQueue:   NewTaskQueue("upstream"),
		DownstreamQueue: NewTaskQueue("downstream"),
	}

	p.AdminQueue.Register("cache-expire", opt.CacheExpireInterval, func(now time.Time) {
		p.Resolver.Expire(now)
	})
	p.AdminQueue.Register("cache-purge", opt.CachePurgeInterval, func(now time.Time) {
		p.Resolver.Purge(now)
	})
	p.AdminQueue.Register("namespace-reload", opt.NamespaceReloadEvery, func(now time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Namespace.ReloadInfo(ctx); err != nil {
			Log.Error("namespace info reload failed", "error", err)
		}
		if err := p.Namespace.ReloadServiceTypes(ctx); err != nil {
			Log.Error("service type reload failed", "error", err)
		}
	})

	p.UpstreamQueue.Register("push-drain", opt.PushDrainInterval, func(now time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Push.Drain(ctx); err != nil {
			Log.Error("push queue drain failed", "error", err)
		}
	})

	p.DownstreamQueue.Register("pool-reload", opt.PoolReloadInterval, func(now time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		types := p.Namespace.ServiceTypes()
		if err := p.Pools.Reload(ctx, types); err != nil {
			Log.Error("pool reload failed", "error", err)
		}
	})

	return p
}

// Start fires every task registered on the admin and downstream queues
// once synchronously (the upstream push-drain is not fired), so namespace
// info, service types and pool snapshots are populated before the first
// request is served rather than left empty for up to a full reload
// interval, then launches the three background task queues, each in its
// own goroutine (spec §4.3).
func (p *Proxy) Start() {
	p.AdminQueue.FireAll()
	p.DownstreamQueue.FireAll()

	go p.AdminQueue.Run()
	go p.UpstreamQueue.Run()
	go p.DownstreamQueue.Run()
}

// Stop halts the three background task queues, waiting for each to
// finish its current tick.
func (p *Proxy) Stop() {
	p.AdminQueue.Stop()
	p.UpstreamQueue.Stop()
	p.DownstreamQueue.Stop()
}

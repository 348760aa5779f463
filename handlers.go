package oioproxy

import (
	"context"
	"encoding/json"
	"expvar"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes assembles every HTTP route the proxy answers, wiring each
// route's handler to the Proxy's collaborators (spec §4.6, §4.7, §6).
// Path segments after each route's fixed prefix are decoded as
// alternating key/value tokens by route.decode (ns/<namespace>,
// ref/<reference>, path/<object path>, type/<service type>,
// version/<version>); the route table below follows spec §6's literal,
// method-overloaded scheme: one shared prefix per resource, dispatched
// by HTTP method, with a POST `?action=` discriminator for the
// resource's side-effecting operations.
func (p *Proxy) Routes() *Router {
	r := NewRouter("oioproxy")
	r.Add(
		// --- directory ---
		newRoute(http.MethodPut, "/dir/ref/", []string{"ns", "ref"}, nil, nil, nil, p.handleCreateReference),
		newRoute(http.MethodDelete, "/dir/ref/", []string{"ns", "ref"}, nil, nil, nil, p.handleDeleteReference),

		newRoute(http.MethodGet, "/dir/prop/", []string{"ns", "ref"}, nil, nil, nil, p.handleGetProperties),
		newRoute(http.MethodPut, "/dir/prop/", []string{"ns", "ref"}, nil, nil, nil, p.handleSetProperties),
		newRoute(http.MethodDelete, "/dir/prop/", []string{"ns", "ref"}, nil, nil, nil, p.handleDeleteProperties),

		newRoute(http.MethodGet, "/dir/list/", []string{"ns", "ref", "type"}, nil, nil, nil, p.handleListLinked),
		newRoute(http.MethodGet, "/dir/srv/", []string{"ns", "ref", "type"}, nil, nil, nil, p.handleListLinked),
		newRoute(http.MethodPost, "/dir/srv/", []string{"ns", "ref"}, nil, []string{"type", "action"}, nil, p.handleLinkService),

		// --- container / content (meta2) ---
		newRoute(http.MethodPut, "/m2/container/", []string{"ns", "ref"}, nil, nil, nil, p.handleCreateContainer),
		newRoute(http.MethodGet, "/m2/container/", []string{"ns", "ref"}, nil, nil, nil, p.handleListContainer),
		newRoute(http.MethodHead, "/m2/container/", []string{"ns", "ref"}, nil, nil, nil, p.handleHeadContainer),
		newRoute(http.MethodDelete, "/m2/container/", []string{"ns", "ref"}, nil, nil, nil, p.handleDestroyContainer),
		newRoute(http.MethodPost, "/m2/container/", []string{"ns", "ref"}, nil, []string{"action"}, nil, p.handleContainerAction),

		newRoute(http.MethodPut, "/m2/content/", []string{"ns", "ref", "path"}, []string{"version"}, nil, nil, p.handlePutContent),
		newRoute(http.MethodGet, "/m2/content/", []string{"ns", "ref", "path"}, []string{"version"}, nil, nil, p.handleGetContent),
		newRoute(http.MethodHead, "/m2/content/", []string{"ns", "ref", "path"}, []string{"version"}, nil, nil, p.handleHeadContent),
		newRoute(http.MethodDelete, "/m2/content/", []string{"ns", "ref", "path"}, []string{"version"}, nil, nil, p.handleDeleteContent),
		newRoute(http.MethodPost, "/m2/content/", []string{"ns", "ref", "path"}, []string{"version"}, []string{"action"}, nil, p.handleContentAction),

		// --- conscience ---
		newRoute(http.MethodGet, "/cs/info/", []string{"ns"}, nil, nil, nil, p.handleNamespaceInfo),
		newRoute(http.MethodGet, "/cs/types/", []string{"ns"}, nil, nil, nil, p.handleListTypes),
		newRoute(http.MethodGet, "/cs/srv/", []string{"ns", "type"}, nil, nil, nil, p.handleListServices),
		newRoute(http.MethodPut, "/cs/srv/", []string{"ns", "type"}, nil, nil, nil, p.handleRegisterService),
		newRoute(http.MethodDelete, "/cs/srv/", []string{"ns", "type"}, nil, nil, nil, p.handleClearServices),
		newRoute(http.MethodHead, "/cs/srv/", []string{"ns", "type"}, nil, nil, nil, p.handleCheckServiceType),
		newRoute(http.MethodPost, "/cs/srv/", []string{"ns", "type"}, nil, []string{"action"}, nil, p.handleLockService),

		// --- cache tuning ---
		newRoute(http.MethodGet, "/cache/status/", nil, nil, nil, nil, p.handleCacheStatus),
		newRoute(http.MethodPost, "/cache/flush/high/", nil, nil, nil, nil, p.handleCacheFlushHigh),
		newRoute(http.MethodPost, "/cache/flush/low/", nil, nil, nil, nil, p.handleCacheFlushLow),
		newRoute(http.MethodPost, "/cache/set/ttl/high/", nil, nil, nil, []string{"ttl"}, p.handleCacheSetTTLHigh),
		newRoute(http.MethodPost, "/cache/set/ttl/low/", nil, nil, nil, []string{"ttl"}, p.handleCacheSetTTLLow),
		newRoute(http.MethodPost, "/cache/set/max/high/", nil, nil, nil, []string{"max"}, p.handleCacheSetMaxHigh),
		newRoute(http.MethodPost, "/cache/set/max/low/", nil, nil, nil, []string{"max"}, p.handleCacheSetMaxLow),
		newRoute(http.MethodPost, "/cache/decache/", []string{"ns", "ref"}, nil, nil, []string{"type"}, p.handleCacheDecache),

		// --- load balancer ---
		newRoute(http.MethodGet, "/lb/sl/", []string{"ns", "type"}, nil, nil, []string{"size", "tagk", "tagv", "stgcls"}, p.lbHandler(IterDefault)),
		newRoute(http.MethodGet, "/lb/rr/", []string{"ns", "type"}, nil, nil, []string{"size", "tagk", "tagv", "stgcls"}, p.lbHandler(IterRoundRobin)),
		newRoute(http.MethodGet, "/lb/wrr/", []string{"ns", "type"}, nil, nil, []string{"size", "tagk", "tagv", "stgcls"}, p.lbHandler(IterWeightedRoundRobin)),
		newRoute(http.MethodGet, "/lb/rand/", []string{"ns", "type"}, nil, nil, []string{"size", "tagk", "tagv", "stgcls"}, p.lbHandler(IterRandom)),
		newRoute(http.MethodGet, "/lb/wrand/", []string{"ns", "type"}, nil, nil, []string{"size", "tagk", "tagv", "stgcls"}, p.lbHandler(IterWeightedRandom)),
	)
	return r
}

// lbHandler builds the GET /lb/{sl,rr,wrr,rand,wrand} handler for the
// given iterator variant (spec §4.4, §6: "pick one/many service(s) of
// type via default/explicit iterator"). Every variant shares the same
// option parsing and NextSet/PolicyNotSatisfiable error path; only the
// variant passed to NextSet differs.
func (p *Proxy) lbHandler(variant IteratorVariant) Handler {
	return func(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
		if url.Namespace == "" {
			return ErrBadRequest("NS")
		}
		if !p.Namespace.IsManaged(url.Namespace) {
			return ErrNamespaceNotManaged(url.Namespace)
		}
		if url.Type == "" {
			return ErrBadRequest("type")
		}
		if !p.Namespace.HasServiceType(url.Type) {
			return ErrTypeNotManaged(url.Type)
		}

		opt := NextSetOptions{Max: 1}
		if sizeRaw, ok := url.Option(OptSize); ok && sizeRaw != "" {
			size, err := strconv.Atoi(sizeRaw)
			if err != nil || size <= 0 {
				return ErrBadRequest(OptSize)
			}
			opt.Max = size
		}
		if class, ok := url.Option(OptStorageClass); ok && class != "" {
			opt.StorageClass = class
			opt.StrictClass = true
		}
		if tagk, ok := url.Option(OptTagKey); ok && tagk != "" {
			tagv, _ := url.Option(OptTagValue)
			opt.Predicate = func(svc ServiceDescriptor) bool {
				v, present := svc.TagString(tagk)
				return present && v == tagv
			}
		}

		services, err := p.Pools.Pool(url.Type).NextSet(variant, opt)
		if err != nil {
			return err
		}
		WriteJSON(w, struct {
			Srv []ServiceDescriptor `json:"srv"`
		}{services})
		return nil
	}
}

// Handler returns the full HTTP handler for the proxy: the route-decoded
// API surface plus the ambient /status and /vars endpoints (spec §6).
func (p *Proxy) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", p.ServeStatus)
	mux.Handle("/vars", expvar.Handler())
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", p.Routes())
	return mux
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return ErrBadRequest("body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ErrBadRequest("body")
	}
	return nil
}

// --- directory handlers ---

func (p *Proxy) handleCreateReference(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	err = resolveAndDo(ctx, url.Reference, "", candidates, nil, func(ctx context.Context, addr string) error {
		return p.DirBackend.CreateReference(ctx, addr, url)
	})
	if err != nil {
		return err
	}
	WriteJSON(w, nil)
	return nil
}

func (p *Proxy) handleDeleteReference(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	err = resolveAndDo(ctx, url.Reference, "", candidates, func() { p.Resolver.DecacheReference(url) }, func(ctx context.Context, addr string) error {
		return p.DirBackend.DeleteReference(ctx, addr, url)
	})
	if err != nil {
		return err
	}
	WriteJSON(w, nil)
	return nil
}

func (p *Proxy) handleGetProperties(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	var body struct {
		Keys []string `json:"keys"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	var props map[string]string
	err = resolveAndDo(ctx, url.Reference, "", candidates, nil, func(ctx context.Context, addr string) error {
		var err error
		props, err = p.DirBackend.GetProperties(ctx, addr, url, body.Keys)
		return err
	})
	if err != nil {
		return err
	}
	WriteJSON(w, struct {
		Properties map[string]string `json:"properties"`
	}{props})
	return nil
}

func (p *Proxy) handleSetProperties(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	var body struct {
		Pairs map[string]string `json:"pairs"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	err = resolveAndDo(ctx, url.Reference, "", candidates, nil, func(ctx context.Context, addr string) error {
		return p.DirBackend.SetProperties(ctx, addr, url, body.Pairs)
	})
	if err != nil {
		return err
	}
	WriteJSON(w, nil)
	return nil
}

func (p *Proxy) handleDeleteProperties(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	var body struct {
		Keys []string `json:"keys"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	err = resolveAndDo(ctx, url.Reference, "", candidates, nil, func(ctx context.Context, addr string) error {
		return p.DirBackend.DeleteProperties(ctx, addr, url, body.Keys)
	})
	if err != nil {
		return err
	}
	WriteJSON(w, nil)
	return nil
}

// handleListLinked answers GET /dir/list and GET /dir/srv alike: both
// list the services of url.Type linked to url's reference. The
// `x-disallow-empty-service-list` header opts into the spec §8 scenario
// E5 behavior: an empty result is surfaced as a soft NoServiceLinked
// error rather than a bare empty list.
func (p *Proxy) handleListLinked(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	if url.Type == "" {
		return ErrBadRequest("type")
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	var linked []string
	err = resolveAndDo(ctx, url.Reference, url.Type, candidates, nil, func(ctx context.Context, addr string) error {
		var err error
		linked, err = p.DirBackend.ListLinkedServices(ctx, addr, url, url.Type)
		return err
	})
	if err != nil {
		return err
	}
	if len(linked) == 0 && r.Header.Get("x-disallow-empty-service-list") == "true" {
		return ErrNoServiceLinked(url.Reference, url.Type)
	}
	WriteJSON(w, struct {
		Srv []string `json:"srv"`
	}{linked})
	return nil
}

func (p *Proxy) handleLinkService(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	action, _ := url.Option("action")
	if url.Type == "" {
		return ErrBadRequest("type")
	}
	if action == "" {
		return ErrBadRequest("action")
	}
	if !p.Namespace.HasServiceType(url.Type) {
		return ErrTypeNotManaged(url.Type)
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveDirectory(ctx, url)
	if err != nil {
		return err
	}
	var linked []string
	err = resolveAndDo(ctx, url.Reference, url.Type, candidates, func() { p.Resolver.DecacheService(url, url.Type) }, func(ctx context.Context, addr string) error {
		var err error
		linked, err = p.DirBackend.LinkService(ctx, addr, url, url.Type, action)
		return err
	})
	if err != nil {
		return err
	}
	WriteJSON(w, struct {
		Srv []string `json:"srv"`
	}{linked})
	return nil
}

// --- meta2 container/content handlers ---

const meta2ServiceType = "meta2"

func (p *Proxy) handleCreateContainer(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		return nil, p.Meta2.CreateContainer(ctx, addr, url)
	})
}

func (p *Proxy) handleListContainer(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		beans, err := p.Meta2.ListContainer(ctx, addr, url)
		if err != nil {
			return nil, err
		}
		return ContainerListing{URL: url.Summary(), BeanList: beans}, nil
	})
}

func (p *Proxy) handleHeadContainer(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		return nil, p.Meta2.HeadContainer(ctx, addr, url)
	})
}

func (p *Proxy) handleDestroyContainer(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		return nil, p.Meta2.DestroyContainer(ctx, addr, url)
	})
}

func (p *Proxy) handleContainerAction(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	action, _ := url.Option("action")
	if action == "" {
		return ErrBadRequest("action")
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return ErrBadRequest("body")
	}
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		beans, err := p.Meta2.ContainerAction(ctx, addr, url, action, body)
		if err != nil {
			return nil, err
		}
		return ContainerListing{URL: url.Summary(), BeanList: beans}, nil
	})
}

func (p *Proxy) handlePutContent(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<30))
	if err != nil {
		return ErrBadRequest("body")
	}
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		return nil, p.Meta2.PutContent(ctx, addr, url, body)
	})
}

func (p *Proxy) handleGetContent(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		beans, err := p.Meta2.GetContent(ctx, addr, url)
		if err != nil {
			return nil, err
		}
		return ContainerListing{URL: url.Summary(), BeanList: beans}, nil
	})
}

func (p *Proxy) handleHeadContent(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		return nil, p.Meta2.HeadContent(ctx, addr, url)
	})
}

func (p *Proxy) handleDeleteContent(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		return nil, p.Meta2.DeleteContent(ctx, addr, url)
	})
}

func (p *Proxy) handleContentAction(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	action, _ := url.Option("action")
	if action == "" {
		return ErrBadRequest("action")
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return ErrBadRequest("body")
	}
	return p.withMeta2(w, r, url, func(ctx context.Context, addr string) (any, error) {
		beans, err := p.Meta2.ContentAction(ctx, addr, url, action, body)
		if err != nil {
			return nil, err
		}
		return ContainerListing{URL: url.Summary(), BeanList: beans}, nil
	})
}

// withMeta2 resolves the meta2 backends for url's reference and runs do
// against each candidate via the retry loop, writing whatever result do
// returns (or a bare success envelope if nil) on success. The resolver
// entry is always wired to decache: per spec §4.6, every container-scoped
// handler must invalidate the cached `(reference, type)` binding on
// success or application error, never only the ones that delete.
func (p *Proxy) withMeta2(w http.ResponseWriter, r *http.Request, url *LogicalURL, do func(ctx context.Context, addr string) (any, error)) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	ctx := r.Context()
	candidates, err := p.Resolver.ResolveService(ctx, url, meta2ServiceType)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		// Container-scoped loop (spec §4.6's pseudocode): no meta2
		// candidates means the container itself is unknown, not merely
		// unlinked.
		return ErrContainerNotFound(url.Reference)
	}

	var result any
	decache := func() { p.Resolver.DecacheService(url, meta2ServiceType) }
	err = resolveAndDo(ctx, url.Reference, meta2ServiceType, candidates, decache, func(ctx context.Context, addr string) error {
		res, err := do(ctx, addr)
		result = res
		return err
	})
	if err != nil {
		return err
	}
	WriteJSON(w, result)
	return nil
}

// --- conscience handlers ---

func (p *Proxy) handleNamespaceInfo(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if !p.Namespace.IsManaged(url.Namespace) {
		return ErrNamespaceNotManaged(url.Namespace)
	}
	WriteJSON(w, p.Namespace.Info())
	return nil
}

func (p *Proxy) handleListTypes(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if !p.Namespace.IsManaged(url.Namespace) {
		return ErrNamespaceNotManaged(url.Namespace)
	}
	WriteJSON(w, struct {
		Types []string `json:"types"`
	}{p.Namespace.ServiceTypes()})
	return nil
}

func (p *Proxy) handleListServices(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if !p.Namespace.IsManaged(url.Namespace) {
		return ErrNamespaceNotManaged(url.Namespace)
	}
	if url.Type == "" {
		return ErrBadRequest("type")
	}
	if !p.Namespace.HasServiceType(url.Type) {
		return ErrTypeNotManaged(url.Type)
	}
	services, err := p.Conscience.ListServices(r.Context(), url.Type)
	if err != nil {
		return TransportError("conscience", err)
	}
	WriteJSON(w, struct {
		Srv []ServiceDescriptor `json:"srv"`
	}{services})
	return nil
}

// registerService implements the registration flow shared by PUT
// /cs/srv (plain PUSH) and POST /cs/srv?action={lock,unlock} (spec
// §4.7): decode the body, validate namespace/type, stamp the timestamp,
// normalize the score per action, enqueue for the next upstream flush,
// echo the normalized descriptor.
func (p *Proxy) registerService(w http.ResponseWriter, r *http.Request, url *LogicalURL, action string) error {
	if !p.Namespace.IsManaged(url.Namespace) {
		return ErrNamespaceNotManaged(url.Namespace)
	}
	if url.Type == "" {
		return ErrBadRequest("type")
	}
	if !p.Namespace.HasServiceType(url.Type) {
		return ErrTypeNotManaged(url.Type)
	}

	var body struct {
		NsName string              `json:"ns_name"`
		Addr   string              `json:"addr"`
		Score  int                 `json:"score"`
		Tags   map[string]TagValue `json:"tags"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if body.Addr == "" {
		return ErrBadRequest("addr")
	}
	if body.NsName != "" && !p.Namespace.IsManaged(body.NsName) {
		return ErrNamespaceNotManaged(body.NsName)
	}

	desc := ServiceDescriptor{
		Addr:    body.Addr,
		Type:    url.Type,
		Score:   NormalizeScore(action, body.Score),
		Tags:    body.Tags,
		Updated: time.Now(),
	}
	p.Push.Push(desc)
	WriteJSON(w, desc)
	return nil
}

func (p *Proxy) handleRegisterService(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.registerService(w, r, url, ActionPush)
}

// handleLockService answers POST /cs/srv?action={lock,unlock}, mapping
// the lowercase query discriminator onto the PUSH/LOCK/UNLOCK action
// names NormalizeScore expects (spec §4.7, source's action_cs_lock /
// action_cs_unlock, both thin wrappers around the shared registration
// helper that only differ in the score they pre-set).
func (p *Proxy) handleLockService(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	action, _ := url.Option("action")
	switch strings.ToLower(action) {
	case "lock":
		action = ActionLock
	case "unlock":
		action = ActionUnlock
	default:
		return ErrBadRequest("action")
	}
	return p.registerService(w, r, url, action)
}

// handleClearServices answers DELETE /cs/srv: deregister every service
// of url.Type from the conscience. Supplements the source's
// action_cs_clear/clear_namespace_services (server/cs_actions.c), which
// has no prior analogue in this proxy.
func (p *Proxy) handleClearServices(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if !p.Namespace.IsManaged(url.Namespace) {
		return ErrNamespaceNotManaged(url.Namespace)
	}
	if url.Type == "" {
		return ErrBadRequest("type")
	}
	if !p.Namespace.HasServiceType(url.Type) {
		return ErrTypeNotManaged(url.Type)
	}
	if err := p.Conscience.ClearServices(r.Context(), url.Type); err != nil {
		return TransportError("conscience", err)
	}
	WriteJSON(w, nil)
	return nil
}

func (p *Proxy) handleCheckServiceType(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if !p.Namespace.IsManaged(url.Namespace) {
		return ErrNamespaceNotManaged(url.Namespace)
	}
	if url.Type == "" {
		return ErrBadRequest("type")
	}
	if !p.Namespace.HasServiceType(url.Type) {
		return ErrTypeNotManaged(url.Type)
	}
	WriteJSON(w, nil)
	return nil
}

// --- cache tuning handlers (spec §6) ---

// cacheStatus is the payload for GET /cache/status: both tiers'
// statistics side by side (spec §3 "Cache statistics").
type cacheStatus struct {
	High CacheStats `json:"high"`
	Low  CacheStats `json:"low"`
}

func (p *Proxy) handleCacheStatus(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	high, low := p.Resolver.Info()
	WriteJSON(w, cacheStatus{High: high, Low: low})
	return nil
}

func (p *Proxy) handleCacheFlushHigh(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	p.Resolver.FlushHigh()
	WriteJSON(w, nil)
	return nil
}

func (p *Proxy) handleCacheFlushLow(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	p.Resolver.FlushLow()
	WriteJSON(w, nil)
	return nil
}

func (p *Proxy) handleCacheSetTTLHigh(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.setCacheTTL(w, url, p.Resolver.HighCache())
}

func (p *Proxy) handleCacheSetTTLLow(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.setCacheTTL(w, url, p.Resolver.LowCache())
}

func (p *Proxy) setCacheTTL(w http.ResponseWriter, url *LogicalURL, cache *Cache) error {
	ttlRaw, ok := url.Option("ttl")
	if !ok || ttlRaw == "" {
		return ErrBadRequest("ttl")
	}
	seconds, err := strconv.Atoi(ttlRaw)
	if err != nil {
		return ErrBadRequest("ttl")
	}
	cache.SetTTL(time.Duration(seconds) * time.Second)
	WriteJSON(w, cache.Info())
	return nil
}

func (p *Proxy) handleCacheSetMaxHigh(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.setCacheMax(w, url, p.Resolver.HighCache())
}

func (p *Proxy) handleCacheSetMaxLow(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	return p.setCacheMax(w, url, p.Resolver.LowCache())
}

func (p *Proxy) setCacheMax(w http.ResponseWriter, url *LogicalURL, cache *Cache) error {
	maxRaw, ok := url.Option("max")
	if !ok || maxRaw == "" {
		return ErrBadRequest("max")
	}
	max, err := strconv.Atoi(maxRaw)
	if err != nil {
		return ErrBadRequest("max")
	}
	cache.SetMax(max)
	WriteJSON(w, cache.Info())
	return nil
}

func (p *Proxy) handleCacheDecache(w http.ResponseWriter, r *http.Request, url *LogicalURL) error {
	if err := url.Validate(true, false); err != nil {
		return err
	}
	if url.Type != "" {
		p.Resolver.DecacheService(url, url.Type)
	} else {
		p.Resolver.DecacheReference(url)
	}
	WriteJSON(w, nil)
	return nil
}

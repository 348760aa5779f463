package oioproxy

import (
	"errors"
	"expvar"
	"net/http"
	"strings"
	"time"
)

// Router dispatches an incoming HTTP request to the first matching
// route, decodes its LogicalURL per that route's contract, and invokes
// its handler, translating any returned error into the JSON envelope
// reply (spec §4.6, §6). Adapted from the teacher's Router (router.go),
// which walked an ordered list of routes and dispatched the first match
// to a DNS resolver; this router does the same walk over HTTP routes
// and an http.Handler in place of a DNS Resolver.
type Router struct {
	id      string
	routes  []*route
	metrics *RouterMetrics
}

type RouterMetrics struct {
	route     *expvar.Map
	failure   *expvar.Map
	available *expvar.Int
}

func newRouterMetrics(id string) *RouterMetrics {
	return &RouterMetrics{
		route:     getVarMap("router", id, "route"),
		failure:   getVarMap("router", id, "failure"),
		available: getVarInt("router", id, "available"),
	}
}

// NewRouter returns an empty router; routes are added with Add.
func NewRouter(id string) *Router {
	return &Router{id: id, metrics: newRouterMetrics(id)}
}

// Add appends routes, evaluated in the order added; the first matching
// route wins.
func (rt *Router) Add(routes ...*route) {
	rt.routes = append(rt.routes, routes...)
	rt.metrics.available.Add(int64(len(routes)))
}

// ServeHTTP implements http.Handler. Per spec §6, an unmatched route is
// a bare HTTP status with no JSON body: 404 when no route's prefix
// matches the path at all, 405 when a prefix matches but none of its
// routes accept the request's method.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path, query := decomposeURI(r.URL.RequestURI())
	prefixMatched := false
	for _, route := range rt.routes {
		if !strings.HasPrefix(path, route.prefix) {
			continue
		}
		prefixMatched = true
		if !route.match(r.Method, path) {
			continue
		}
		rt.metrics.route.Add(route.String(), 1)
		url, err := route.decode(path, query)
		if err != nil {
			rt.metrics.failure.Add(route.String(), 1)
			WriteError(w, err)
			observeRequest(route.String(), errorCode(err), start)
			return
		}
		err = route.handler(w, r, url)
		if err != nil {
			rt.metrics.failure.Add(route.String(), 1)
			WriteError(w, err)
		}
		observeRequest(route.String(), errorCode(err), start)
		return
	}
	if prefixMatched {
		w.WriteHeader(http.StatusMethodNotAllowed)
		observeRequest("unmatched", http.StatusMethodNotAllowed, start)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	observeRequest("unmatched", http.StatusNotFound, start)
}

func errorCode(err error) int {
	if err == nil {
		return 0
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code()
	}
	return CodeInternalError
}

package oioproxy

import (
	"fmt"
	"net/http"
	"strings"
)

// route is a declarative HTTP route descriptor: a method, a path
// prefix, the set of path tokens and query arguments it requires or
// accepts, and the handler to invoke once a request satisfies the
// contract (spec §4.6). Adapted from the teacher's route (route.go),
// which matched a DNS query against type/class/name/time/source
// predicates before dispatching to a resolver; this route matches an
// HTTP request's method, path and query instead, but keeps the same
// "compile the matcher once, evaluate per-request" shape.
type route struct {
	method        string
	prefix        string
	requiredPath  []string
	optionalPath  []string
	requiredQuery []string
	optionalQuery []string
	handler       Handler
}

// Handler processes a matched request against its decoded LogicalURL.
type Handler func(w http.ResponseWriter, r *http.Request, url *LogicalURL) error

// newRoute compiles a route descriptor. requiredPath/optionalPath are
// path token keys (spec §4.6's "required/optional path-token bitmask");
// requiredQuery/optionalQuery are query argument keys.
func newRoute(method, prefix string, requiredPath, optionalPath, requiredQuery, optionalQuery []string, handler Handler) *route {
	return &route{
		method:        method,
		prefix:        prefix,
		requiredPath:  requiredPath,
		optionalPath:  optionalPath,
		requiredQuery: requiredQuery,
		optionalQuery: optionalQuery,
		handler:       handler,
	}
}

// match reports whether r's method and path prefix select this route,
// without yet validating its token/query contract.
func (rt *route) match(method, path string) bool {
	if rt.method != method {
		return false
	}
	return strings.HasPrefix(path, rt.prefix)
}

// decode builds the LogicalURL for a matched request, enforcing the
// route's required/optional path-token and query-arg contract. A
// contract violation names the offending field, per spec §4.6 ("a
// violation must be reported with the name of the violated field, not a
// generic 400").
func (rt *route) decode(path, rawQuery string) (*LogicalURL, error) {
	tokens, err := splitPathTokens(strings.TrimPrefix(path, rt.prefix))
	if err != nil {
		return nil, NewError(CodeBadRequest, err.Error())
	}
	args := splitQueryArgs(rawQuery)

	for _, key := range rt.requiredPath {
		if _, ok := tokens[key]; !ok {
			return nil, ErrBadRequest(strings.ToUpper(key))
		}
	}
	allowedPath := make(map[string]struct{}, len(rt.requiredPath)+len(rt.optionalPath))
	for _, key := range rt.requiredPath {
		allowedPath[key] = struct{}{}
	}
	for _, key := range rt.optionalPath {
		allowedPath[key] = struct{}{}
	}
	for key := range tokens {
		if _, ok := allowedPath[key]; !ok {
			return nil, NewError(CodeBadRequest, fmt.Sprintf("Unexpected path token %q", key))
		}
	}

	for _, key := range rt.requiredQuery {
		if _, ok := args[key]; !ok {
			return nil, ErrBadRequest(strings.ToUpper(key))
		}
	}
	allowedQuery := make(map[string]struct{}, len(rt.requiredQuery)+len(rt.optionalQuery))
	for _, key := range rt.requiredQuery {
		allowedQuery[key] = struct{}{}
	}
	for _, key := range rt.optionalQuery {
		allowedQuery[key] = struct{}{}
	}
	for key := range args {
		if _, ok := allowedQuery[key]; !ok {
			return nil, NewError(CodeBadRequest, fmt.Sprintf("Unexpected query arg %q", key))
		}
	}

	svcType := tokens["type"]
	if svcType == "" {
		svcType = args["type"]
	}
	url := &LogicalURL{
		Namespace: tokens["ns"],
		Reference: tokens["ref"],
		Path:      tokens["path"],
		Version:   tokens["version"],
		Type:      svcType,
		Options:   args,
	}
	return url, nil
}

func (rt *route) String() string {
	return fmt.Sprintf("%s %s", rt.method, rt.prefix)
}

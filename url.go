package oioproxy

import (
	"fmt"
	"net/url"
	"strings"
)

// Recognized option keys in a LogicalURL's query string (spec §3).
const (
	OptStoragePolicy = "stgpol"
	OptVersionPolicy = "verpol"
	OptSize          = "size"
	OptPolicy        = "policy"
	OptStorageClass  = "stgcls"
	OptKey           = "key"
	OptTagKey        = "tagk"
	OptTagValue      = "tagv"
	OptAction        = "action"
)

// LogicalURL is the compound key every route operates on: a namespace,
// an optional reference (container), an optional path (object name),
// an optional version, and a free-form options bag.
type LogicalURL struct {
	Namespace string
	Reference string
	Path      string
	Version   string
	Type      string
	Options   map[string]string
}

// URLSummary is the "URL" object every m2 reply echoes alongside its
// payload (source's _append_url: `"URL":{"ns":...,"ref":...,"path":...}`).
type URLSummary struct {
	NS   string `json:"ns"`
	Ref  string `json:"ref"`
	Path string `json:"path"`
}

// Summary returns the URL object form of u, as echoed by meta2 replies.
func (u *LogicalURL) Summary() URLSummary {
	return URLSummary{NS: u.Namespace, Ref: u.Reference, Path: u.Path}
}

// Option returns the named option value and whether it was present.
func (u *LogicalURL) Option(name string) (string, bool) {
	if u.Options == nil {
		return "", false
	}
	v, ok := u.Options[name]
	return v, ok
}

// CacheKeyReference returns the key used by the low-tier resolver cache
// for (namespace, reference, type) triples.
func (u *LogicalURL) CacheKeyReference(svcType string) string {
	return fmt.Sprintf("%s/%s/%s", u.Namespace, u.Reference, svcType)
}

// CacheKeyNamespace returns the key used by the high-tier resolver
// cache for a namespace's directory servers.
func (u *LogicalURL) CacheKeyNamespace() string {
	return u.Namespace
}

// Validate enforces the invariants from spec §3: namespace is always
// required; reference is required when a container or object is
// addressed; path is required for object-scoped operations.
func (u *LogicalURL) Validate(requireRef, requirePath bool) error {
	if u.Namespace == "" {
		return ErrBadRequest("NS")
	}
	if requireRef && u.Reference == "" {
		return ErrBadRequest("REF")
	}
	if requirePath && u.Path == "" {
		return ErrBadRequest("PATH")
	}
	return nil
}

// splitPathTokens decomposes the path portion of a request URI (after
// the route's prefix has already been stripped) into alternating
// key/value pairs, percent-decoding each segment as UTF-8. An odd
// number of segments, an empty key, or a duplicate key is an error per
// the router contract in spec §4.6.
func splitPathTokens(path string) (map[string]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return map[string]string{}, nil
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 {
		return nil, fmt.Errorf("odd number of path segments")
	}
	tokens := make(map[string]string, len(segments)/2)
	for i := 0; i < len(segments); i += 2 {
		key, err := url.PathUnescape(segments[i])
		if err != nil {
			return nil, fmt.Errorf("invalid token key %q: %w", segments[i], err)
		}
		if key == "" {
			return nil, fmt.Errorf("empty token key")
		}
		if _, dup := tokens[key]; dup {
			return nil, fmt.Errorf("duplicate token %q", key)
		}
		value, err := url.PathUnescape(segments[i+1])
		if err != nil {
			return nil, fmt.Errorf("invalid token value for %q: %w", key, err)
		}
		tokens[key] = value
	}
	return tokens, nil
}

// splitQueryArgs decomposes a query string into key/value pairs. A bare
// key with no "=" is allowed and means an empty value, per spec §4.6.
func splitQueryArgs(rawQuery string) map[string]string {
	args := make(map[string]string)
	if rawQuery == "" {
		return args
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		if i := strings.IndexByte(pair, '='); i >= 0 {
			k, _ := url.QueryUnescape(pair[:i])
			v, _ := url.QueryUnescape(pair[i+1:])
			args[k] = v
		} else {
			k, _ := url.QueryUnescape(pair)
			args[k] = ""
		}
	}
	return args
}

// decomposeURI splits a raw request URI into (path, query), dropping
// any fragment, per spec §4.6 ("split `?` to separate path from query,
// `#` to drop the fragment").
func decomposeURI(requestURI string) (path, query string) {
	if i := strings.IndexByte(requestURI, '#'); i >= 0 {
		requestURI = requestURI[:i]
	}
	if i := strings.IndexByte(requestURI, '?'); i >= 0 {
		return requestURI[:i], requestURI[i+1:]
	}
	return requestURI, ""
}

/*
Package oioproxy implements an HTTP proxy that fronts a distributed
object-storage cluster made up of three backend service classes: a
conscience (service registry), a two-tier directory, and replicated
container/object metadata servers (meta1/meta2). It resolves logical
namespace/reference/path addresses into concrete backend addresses,
load-balances across the resolved candidates, and forwards an opaque
RPC, returning a JSON envelope. There are a few fundamental types of
objects in this package.

Caches

A Cache maps string keys to address lists with independent size and
TTL based eviction. The Resolver composes two caches (a high tier for
namespace-to-directory bindings and a low tier for reference-to-service
bindings) into a single two-tier lookup.

Pools

A Pool holds a live snapshot of services for a given service-type and
hands out subsets of them to callers according to a selection policy:
round-robin, weighted round-robin, random, or weighted random.

Routers

A Router matches incoming HTTP requests against a table of routes by
method and path prefix, validates the path-token and query-argument
contracts declared by each route, and dispatches to the route's
handler.

Background tasks

A TaskQueue runs a set of periodic jobs (cache expiry, namespace-info
reload, load-balancer refresh, push-queue flush) cooperatively on a
single background goroutine per queue.
*/
package oioproxy

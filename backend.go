package oioproxy

import "context"

// DirectoryClient is the opaque collaborator that resolves a namespace
// to its meta1/meta0 directory servers and queries those directories
// for the service addresses linked to a reference. The wire protocol
// itself is out of scope (spec §1: "treated as opaque RPC calls"); this
// is the seam a real conscience/meta1 client plugs into, analogous to
// how the teacher treats dnsclient.go/dohclient.go as opaque transports
// behind the Resolver interface.
type DirectoryClient interface {
	// ResolveNamespace returns the directory (meta1/meta0) addresses for
	// a namespace. An empty, error-free result means the namespace has
	// no directory servers.
	ResolveNamespace(ctx context.Context, namespace string) ([]string, error)

	// ResolveServices queries the given directory addresses for the
	// backend addresses of svcType linked to (namespace, reference).
	ResolveServices(ctx context.Context, directories []string, namespace, reference, svcType string) ([]string, error)
}

// ConscienceClient is the opaque collaborator talking to the conscience
// registry: listing live services by type, pushing a batch of
// registrations, and pulling namespace/service-type configuration.
type ConscienceClient interface {
	ListServices(ctx context.Context, svcType string) ([]ServiceDescriptor, error)
	PushServices(ctx context.Context, services []ServiceDescriptor) error
	NamespaceInfo(ctx context.Context) (NamespaceInfo, error)
	ServiceTypes(ctx context.Context) ([]string, error)

	// ClearServices deregisters every service of svcType from the
	// conscience (source's action_cs_clear/clear_namespace_services:
	// "Agent error" on failure, bare 200 "OK" on success).
	ClearServices(ctx context.Context, svcType string) error
}

// DirBackend manages reference, property, and service-link state on a
// single directory (meta1) backend address. Every method takes the
// concrete address chosen by the resolve-and-do loop.
type DirBackend interface {
	CreateReference(ctx context.Context, addr string, url *LogicalURL) error
	DeleteReference(ctx context.Context, addr string, url *LogicalURL) error
	GetProperties(ctx context.Context, addr string, url *LogicalURL, keys []string) (map[string]string, error)
	SetProperties(ctx context.Context, addr string, url *LogicalURL, pairs map[string]string) error
	DeleteProperties(ctx context.Context, addr string, url *LogicalURL, keys []string) error
	ListLinkedServices(ctx context.Context, addr string, url *LogicalURL, svcType string) ([]string, error)
	LinkService(ctx context.Context, addr string, url *LogicalURL, svcType, action string) ([]string, error)
}

// Meta2Backend issues container/object metadata RPCs against a single
// meta2 backend address. The bean object model is treated as an opaque
// tagged record emitted to JSON by dispatch on a type tag (spec §1);
// read operations return a BeanList, write operations return only an
// error.
type Meta2Backend interface {
	CreateContainer(ctx context.Context, addr string, url *LogicalURL) error
	ListContainer(ctx context.Context, addr string, url *LogicalURL) (BeanList, error)
	HeadContainer(ctx context.Context, addr string, url *LogicalURL) error
	DestroyContainer(ctx context.Context, addr string, url *LogicalURL) error
	ContainerAction(ctx context.Context, addr string, url *LogicalURL, action string, body []byte) (BeanList, error)

	PutContent(ctx context.Context, addr string, url *LogicalURL, body []byte) error
	GetContent(ctx context.Context, addr string, url *LogicalURL) (BeanList, error)
	HeadContent(ctx context.Context, addr string, url *LogicalURL) error
	DeleteContent(ctx context.Context, addr string, url *LogicalURL) error
	ContentAction(ctx context.Context, addr string, url *LogicalURL, action string, body []byte) (BeanList, error)
}

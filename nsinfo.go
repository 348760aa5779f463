package oioproxy

import (
	"context"
	"sync"
)

// NamespaceInfo is the process-wide cluster configuration snapshot
// pulled periodically from the conscience (spec §3).
type NamespaceInfo struct {
	Name          string            `json:"ns"`
	ChunkSize     int64             `json:"chunksize"`
	Options       map[string]string `json:"options,omitempty"`
	StoragePolicy map[string]string `json:"storage_policy,omitempty"`
}

// NamespaceConfig holds the namespace-info and service-type-list
// snapshots behind one mutex, replaced atomically so that readers
// always observe a complete snapshot, either old or new, never a
// partially mutated one (spec §3, §5). Grounded in the same
// replace-under-lock pattern as the teacher's config reload (config
// values read once at startup here become a periodically refreshed
// snapshot instead).
type NamespaceConfig struct {
	mu         sync.RWMutex
	info       NamespaceInfo
	srvTypes   []string
	conscience ConscienceClient
}

func NewNamespaceConfig(conscience ConscienceClient) *NamespaceConfig {
	return &NamespaceConfig{conscience: conscience}
}

// Info returns the current namespace info snapshot.
func (n *NamespaceConfig) Info() NamespaceInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.info
}

// ServiceTypes returns a copy of the current allowed service-type list.
func (n *NamespaceConfig) ServiceTypes() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.srvTypes))
	copy(out, n.srvTypes)
	return out
}

// IsManaged reports whether ns is the namespace this proxy serves (spec
// §4.7: registration requests are rejected with NamespaceNotManaged when
// they address any other namespace).
func (n *NamespaceConfig) IsManaged(ns string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.info.Name != "" && n.info.Name == ns
}

// ReloadInfo pulls the namespace info from the conscience and replaces
// the snapshot atomically. Intended to be registered as a periodic task
// on the admin task queue (spec §4.3).
func (n *NamespaceConfig) ReloadInfo(ctx context.Context) error {
	info, err := n.conscience.NamespaceInfo(ctx)
	if err != nil {
		return TransportError("nsinfo", err)
	}
	n.mu.Lock()
	n.info = info
	n.mu.Unlock()
	return nil
}

// ReloadServiceTypes pulls the allowed service-type list from the
// conscience and replaces the snapshot atomically.
func (n *NamespaceConfig) ReloadServiceTypes(ctx context.Context) error {
	types, err := n.conscience.ServiceTypes(ctx)
	if err != nil {
		return TransportError("srvtypes", err)
	}
	n.mu.Lock()
	n.srvTypes = types
	n.mu.Unlock()
	return nil
}

// HasServiceType reports whether svcType is in the currently configured
// allowed service-type list.
func (n *NamespaceConfig) HasServiceType(svcType string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, t := range n.srvTypes {
		if t == svcType {
			return true
		}
	}
	return false
}

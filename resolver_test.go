package oioproxy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	nsCalls  int
	svcCalls int
	dirs     []string
	svcs     []string
	err      error
}

func (f *fakeDirectory) ResolveNamespace(ctx context.Context, namespace string) ([]string, error) {
	f.nsCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.dirs, nil
}

func (f *fakeDirectory) ResolveServices(ctx context.Context, directories []string, namespace, reference, svcType string) ([]string, error) {
	f.svcCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.svcs, nil
}

func TestResolverCachesDirectoryLookup(t *testing.T) {
	dir := &fakeDirectory{dirs: []string{"10.0.0.1:6000"}}
	r := NewResolver(dir, ResolverOptions{HighTTL: time.Minute, LowTTL: time.Minute})

	url := &LogicalURL{Namespace: "NS", Reference: "myref"}
	addrs, err := r.ResolveDirectory(context.Background(), url)
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.1:6000"}, addrs)

	_, err = r.ResolveDirectory(context.Background(), url)
	require.NoError(t, err)
	require.Equal(t, 1, dir.nsCalls, "second call should hit the high-tier cache")
}

func TestResolverCachesServiceLookupAndCascadesDecache(t *testing.T) {
	dir := &fakeDirectory{dirs: []string{"10.0.0.1:6000"}, svcs: []string{"10.0.0.2:6001"}}
	r := NewResolver(dir, ResolverOptions{HighTTL: time.Minute, LowTTL: time.Minute})

	url := &LogicalURL{Namespace: "NS", Reference: "myref"}
	addrs, err := r.ResolveService(context.Background(), url, "meta2")
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.2:6001"}, addrs)
	require.Equal(t, 1, dir.svcCalls)

	_, err = r.ResolveService(context.Background(), url, "meta2")
	require.NoError(t, err)
	require.Equal(t, 1, dir.svcCalls, "second call should hit the low-tier cache")

	r.DecacheReference(url)
	_, err = r.ResolveService(context.Background(), url, "meta2")
	require.NoError(t, err)
	require.Equal(t, 2, dir.svcCalls, "decache_reference must force a fresh lookup")
}

func TestResolverExpireEvictsHighTier(t *testing.T) {
	dir := &fakeDirectory{dirs: []string{"10.0.0.1:6000"}}
	r := NewResolver(dir, ResolverOptions{HighTTL: time.Minute, LowTTL: time.Minute})
	now := time.Now()
	r.SetClock(func() time.Time { return now })

	url := &LogicalURL{Namespace: "NS", Reference: "myref"}
	_, err := r.ResolveDirectory(context.Background(), url)
	require.NoError(t, err)

	highEvicted, _ := r.Expire(now.Add(2 * time.Minute))
	require.Equal(t, 1, highEvicted)
}

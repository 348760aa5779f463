package oioproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeMeta2 struct {
	createErr error
	headErr   error
	contents  BeanList
}

func (f *fakeMeta2) CreateContainer(ctx context.Context, addr string, url *LogicalURL) error {
	return f.createErr
}
func (f *fakeMeta2) ListContainer(ctx context.Context, addr string, url *LogicalURL) (BeanList, error) {
	return f.contents, nil
}
func (f *fakeMeta2) HeadContainer(ctx context.Context, addr string, url *LogicalURL) error {
	return f.headErr
}
func (f *fakeMeta2) DestroyContainer(ctx context.Context, addr string, url *LogicalURL) error {
	return nil
}
func (f *fakeMeta2) ContainerAction(ctx context.Context, addr string, url *LogicalURL, action string, body []byte) (BeanList, error) {
	return f.contents, nil
}
func (f *fakeMeta2) PutContent(ctx context.Context, addr string, url *LogicalURL, body []byte) error {
	return nil
}
func (f *fakeMeta2) GetContent(ctx context.Context, addr string, url *LogicalURL) (BeanList, error) {
	return f.contents, nil
}
func (f *fakeMeta2) HeadContent(ctx context.Context, addr string, url *LogicalURL) error { return nil }
func (f *fakeMeta2) DeleteContent(ctx context.Context, addr string, url *LogicalURL) error {
	return nil
}
func (f *fakeMeta2) ContentAction(ctx context.Context, addr string, url *LogicalURL, action string, body []byte) (BeanList, error) {
	return f.contents, nil
}

// fakeDirBackend answers directory RPCs with canned responses; a nil
// linked map entry for a reference yields an empty slice, matching the
// shape DirBackend.ListLinkedServices returns for an unlinked reference.
type fakeDirBackend struct {
	linked map[string][]string
}

func (f *fakeDirBackend) CreateReference(ctx context.Context, addr string, url *LogicalURL) error {
	return nil
}
func (f *fakeDirBackend) DeleteReference(ctx context.Context, addr string, url *LogicalURL) error {
	return nil
}
func (f *fakeDirBackend) GetProperties(ctx context.Context, addr string, url *LogicalURL, keys []string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeDirBackend) SetProperties(ctx context.Context, addr string, url *LogicalURL, pairs map[string]string) error {
	return nil
}
func (f *fakeDirBackend) DeleteProperties(ctx context.Context, addr string, url *LogicalURL, keys []string) error {
	return nil
}
func (f *fakeDirBackend) ListLinkedServices(ctx context.Context, addr string, url *LogicalURL, svcType string) ([]string, error) {
	return f.linked[url.Reference], nil
}
func (f *fakeDirBackend) LinkService(ctx context.Context, addr string, url *LogicalURL, svcType, action string) ([]string, error) {
	addrs := append(f.linked[url.Reference], addr)
	f.linked[url.Reference] = addrs
	return addrs, nil
}

// managedConscience answers for namespace "NS1" with "meta2" as its only
// allowed service type, so handlers gated on NamespaceConfig can be
// exercised without a live conscience.
type managedConscience struct {
	fakeConscience
}

func (c *managedConscience) NamespaceInfo(ctx context.Context) (NamespaceInfo, error) {
	return NamespaceInfo{Name: "NS1"}, nil
}
func (c *managedConscience) ServiceTypes(ctx context.Context) ([]string, error) {
	return []string{"meta2"}, nil
}

func newTestProxy(t *testing.T, meta2 Meta2Backend, conscience ConscienceClient) *Proxy {
	dir := &fakeDirectory{dirs: []string{"10.0.0.1:6000"}, svcs: []string{"10.0.0.2:6001"}}
	if conscience == nil {
		conscience = &managedConscience{}
	}
	p := NewProxy(dir, conscience, &fakeDirBackend{linked: map[string][]string{}}, meta2, ResolverOptions{HighTTL: time.Minute, LowTTL: time.Minute}, ProxyOptions{})
	require.NoError(t, p.Namespace.ReloadInfo(context.Background()))
	require.NoError(t, p.Namespace.ReloadServiceTypes(context.Background()))
	return p
}

// envelope decodes the flat `{"status":...,"message":...,...}` body every
// reply carries, per spec §6.
func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "status")
	require.Contains(t, body, "message")
	return body
}

func TestHandleCreateContainerSuccess(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodPut, "/m2/container/ns/NS1/ref/myref", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.InEpsilon(t, float64(CodeOK), body["status"], 0)
}

func TestHandleCreateContainerApplicationErrorIsSoftError(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{createErr: ErrContainerExists("myref")}, nil)
	req := httptest.NewRequest(http.MethodPut, "/m2/container/ns/NS1/ref/myref", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.InEpsilon(t, float64(CodeContainerExists), body["status"], 0)
}

func TestHandleListContainerReturnsFlatURLAndBeans(t *testing.T) {
	beans := NewBeanList()
	beans.Aliases = append(beans.Aliases, AliasBean{Name: "obj1"})
	p := newTestProxy(t, &fakeMeta2{contents: beans}, nil)
	req := httptest.NewRequest(http.MethodGet, "/m2/container/ns/NS1/ref/myref", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.Contains(t, body, "URL")
	require.Contains(t, body, "aliases")
	require.Contains(t, body, "headers")
	require.Contains(t, body, "contents")
	require.Contains(t, body, "chunks")
	urlObj := body["URL"].(map[string]any)
	require.Equal(t, "NS1", urlObj["ns"])
	require.Equal(t, "myref", urlObj["ref"])
}

func TestHandleListServicesRejectsUnmanagedType(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/cs/srv/ns/NS1/type/bogus", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.InEpsilon(t, float64(CodeTypeNotManaged), body["status"], 0)
}

func TestHandleRegisterServiceEnqueuesPush(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	body := `{"addr":"10.0.0.5:6000","score":1}`
	req := httptest.NewRequest(http.MethodPut, "/cs/srv/ns/NS1/type/meta2", strings.NewReader(body))
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, p.Push.Len())
}

func TestHandleRegisterServiceMissingTypeIsBadRequest(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodPut, "/cs/srv/ns/NS1", strings.NewReader(`{"addr":"x"}`))
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRegisterServiceRejectsMismatchedBodyNamespace(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	body := `{"ns_name":"OTHERNS","addr":"10.0.0.5:6000","score":1}`
	req := httptest.NewRequest(http.MethodPut, "/cs/srv/ns/NS1/type/meta2", strings.NewReader(body))
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	envBody := envelope(t, w)
	require.InEpsilon(t, float64(CodeNamespaceNotManaged), envBody["status"], 0)
}

func TestWithMeta2EmptyCandidatesIsContainerNotFound(t *testing.T) {
	dir := &fakeDirectory{dirs: []string{"10.0.0.1:6000"}, svcs: nil}
	p := NewProxy(dir, &managedConscience{}, &fakeDirBackend{linked: map[string][]string{}}, &fakeMeta2{}, ResolverOptions{HighTTL: time.Minute, LowTTL: time.Minute}, ProxyOptions{})
	require.NoError(t, p.Namespace.ReloadInfo(context.Background()))
	require.NoError(t, p.Namespace.ReloadServiceTypes(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/m2/container/ns/NS1/ref/myref", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.InEpsilon(t, float64(CodeContainerNotFound), body["status"], 0)
}

func TestHandleLockServiceSetsScore(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/cs/srv/ns/NS1/type/meta2", strings.NewReader(`{"addr":"10.0.0.5:6000","score":30}`))
	req.URL.RawQuery = "action=lock"
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, p.Push.Len())
	body := envelope(t, w)
	require.InEpsilon(t, float64(30), body["score"], 0)
}

func TestHandleClearServicesDeregistersType(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/cs/srv/ns/NS1/type/meta2", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.InEpsilon(t, float64(CodeOK), body["status"], 0)
}

func TestHandleListTypesReturnsManagedTypes(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/cs/types/ns/NS1", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	types, ok := body["types"].([]any)
	require.True(t, ok)
	require.Contains(t, types, "meta2")
}

func TestHandleListLinkedEmptyWithDisallowHeaderIsSoftError(t *testing.T) {
	dir := &fakeDirectory{dirs: []string{"10.0.0.1:6000"}, svcs: nil}
	dirBackend := &fakeDirBackend{linked: map[string][]string{}}
	p := NewProxy(dir, &managedConscience{}, dirBackend, &fakeMeta2{}, ResolverOptions{HighTTL: time.Minute, LowTTL: time.Minute}, ProxyOptions{})
	require.NoError(t, p.Namespace.ReloadInfo(context.Background()))
	require.NoError(t, p.Namespace.ReloadServiceTypes(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/dir/srv/ns/NS1/ref/missing/type/meta2", nil)
	req.Header.Set("x-disallow-empty-service-list", "true")
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	require.InEpsilon(t, float64(CodeNoServiceLinked), body["status"], 0)
}

func TestStatusEndpoint(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/x-java-properties", w.Header().Get("Content-Type"))
}

func TestHandleCacheStatusReportsBothTiers(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/cache/status/", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"high"`)
	require.Contains(t, w.Body.String(), `"low"`)
}

func TestHandleCacheFlushLow(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/cache/flush/low/", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleLoadBalancerDefaultPicksOneService(t *testing.T) {
	conscience := &managedConscience{fakeConscience: fakeConscience{services: []ServiceDescriptor{
		{Addr: "10.0.0.1:6000", Type: "meta2", Score: 42},
		{Addr: "10.0.0.2:6000", Type: "meta2", Score: 17},
	}}}
	p := newTestProxy(t, &fakeMeta2{}, conscience)
	require.NoError(t, p.Pools.Reload(context.Background(), []string{"meta2"}))

	req := httptest.NewRequest(http.MethodGet, "/lb/sl/ns/NS1/type/meta2", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"addr":"10.0.0.`)
}

func TestHandleLoadBalancerSizeSelectsMultiple(t *testing.T) {
	conscience := &managedConscience{fakeConscience: fakeConscience{services: []ServiceDescriptor{
		{Addr: "10.0.0.1:6000", Type: "meta2", Score: 42},
		{Addr: "10.0.0.2:6000", Type: "meta2", Score: 17},
	}}}
	p := newTestProxy(t, &fakeMeta2{}, conscience)
	require.NoError(t, p.Pools.Reload(context.Background(), []string{"meta2"}))

	req := httptest.NewRequest(http.MethodGet, "/lb/rr/ns/NS1/type/meta2", nil)
	req.URL.RawQuery = "size=2"
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "10.0.0.1:6000")
	require.Contains(t, w.Body.String(), "10.0.0.2:6000")
}

func TestHandleLoadBalancerUnsatisfiablePolicyIsSoftError(t *testing.T) {
	conscience := &managedConscience{fakeConscience: fakeConscience{services: []ServiceDescriptor{
		{Addr: "10.0.0.1:6000", Type: "meta2", Score: 42},
	}}}
	p := newTestProxy(t, &fakeMeta2{}, conscience)
	require.NoError(t, p.Pools.Reload(context.Background(), []string{"meta2"}))

	req := httptest.NewRequest(http.MethodGet, "/lb/rr/ns/NS1/type/meta2", nil)
	req.URL.RawQuery = "size=2"
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":481`)
}

func TestHandleLoadBalancerUnknownTypeIsTypeNotManaged(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/lb/sl/ns/NS1/type/bogus", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":460`)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	p := newTestProxy(t, &fakeMeta2{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "oioproxy_requests_total")
}

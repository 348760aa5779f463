package oioproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient is the default DirectoryClient/ConscienceClient/DirBackend/
// Meta2Backend implementation: it issues the same opaque RPCs the
// backend interfaces describe as plain JSON-over-HTTP calls against the
// configured conscience/directory/meta2 addresses (spec §1: "the wire
// protocol to the backend services is out of scope; treat it as an
// opaque RPC"). Any real deployment is expected to supply its own
// implementation of these interfaces wrapping the cluster's actual wire
// protocol; HTTPClient exists so the reference binary has something
// concrete to run.
type HTTPClient struct {
	ConscienceAddr string
	Client         *http.Client
}

func NewHTTPClient(conscienceAddr string) *HTTPClient {
	return &HTTPClient{
		ConscienceAddr: conscienceAddr,
		Client:         &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, addr, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("http://%s%s", addr, path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- DirectoryClient ---

func (c *HTTPClient) ResolveNamespace(ctx context.Context, namespace string) ([]string, error) {
	var addrs []string
	err := c.do(ctx, http.MethodGet, c.ConscienceAddr, "/dir/"+namespace, nil, &addrs)
	return addrs, err
}

func (c *HTTPClient) ResolveServices(ctx context.Context, directories []string, namespace, reference, svcType string) ([]string, error) {
	if len(directories) == 0 {
		return nil, ErrNoServiceLinked(reference, svcType)
	}
	var addrs []string
	path := fmt.Sprintf("/dir/%s/%s/%s", namespace, reference, svcType)
	var lastErr error
	for _, addr := range directories {
		if err := c.do(ctx, http.MethodGet, addr, path, nil, &addrs); err != nil {
			lastErr = err
			continue
		}
		return addrs, nil
	}
	return nil, TransportError("directory", lastErr)
}

// --- ConscienceClient ---

func (c *HTTPClient) ListServices(ctx context.Context, svcType string) ([]ServiceDescriptor, error) {
	var services []ServiceDescriptor
	err := c.do(ctx, http.MethodGet, c.ConscienceAddr, "/cs/services/"+svcType, nil, &services)
	return services, err
}

func (c *HTTPClient) PushServices(ctx context.Context, services []ServiceDescriptor) error {
	return c.do(ctx, http.MethodPost, c.ConscienceAddr, "/cs/register", services, nil)
}

func (c *HTTPClient) NamespaceInfo(ctx context.Context) (NamespaceInfo, error) {
	var info NamespaceInfo
	err := c.do(ctx, http.MethodGet, c.ConscienceAddr, "/cs/info", nil, &info)
	return info, err
}

func (c *HTTPClient) ServiceTypes(ctx context.Context) ([]string, error) {
	var types []string
	err := c.do(ctx, http.MethodGet, c.ConscienceAddr, "/cs/types", nil, &types)
	return types, err
}

func (c *HTTPClient) ClearServices(ctx context.Context, svcType string) error {
	return c.do(ctx, http.MethodDelete, c.ConscienceAddr, "/cs/srv/"+svcType, nil, nil)
}

// --- DirBackend ---

func (c *HTTPClient) CreateReference(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodPut, addr, "/dir/"+url.Namespace+"/"+url.Reference, nil, nil)
}

func (c *HTTPClient) DeleteReference(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodDelete, addr, "/dir/"+url.Namespace+"/"+url.Reference, nil, nil)
}

func (c *HTTPClient) GetProperties(ctx context.Context, addr string, url *LogicalURL, keys []string) (map[string]string, error) {
	var props map[string]string
	err := c.do(ctx, http.MethodGet, addr, "/dir/"+url.Namespace+"/"+url.Reference+"/properties", keys, &props)
	return props, err
}

func (c *HTTPClient) SetProperties(ctx context.Context, addr string, url *LogicalURL, pairs map[string]string) error {
	return c.do(ctx, http.MethodPost, addr, "/dir/"+url.Namespace+"/"+url.Reference+"/properties", pairs, nil)
}

func (c *HTTPClient) DeleteProperties(ctx context.Context, addr string, url *LogicalURL, keys []string) error {
	return c.do(ctx, http.MethodDelete, addr, "/dir/"+url.Namespace+"/"+url.Reference+"/properties", keys, nil)
}

func (c *HTTPClient) ListLinkedServices(ctx context.Context, addr string, url *LogicalURL, svcType string) ([]string, error) {
	var addrs []string
	err := c.do(ctx, http.MethodGet, addr, "/dir/"+url.Namespace+"/"+url.Reference+"/linked/"+svcType, nil, &addrs)
	return addrs, err
}

func (c *HTTPClient) LinkService(ctx context.Context, addr string, url *LogicalURL, svcType, action string) ([]string, error) {
	var addrs []string
	err := c.do(ctx, http.MethodPost, addr, "/dir/"+url.Namespace+"/"+url.Reference+"/linked/"+svcType+"?action="+action, nil, &addrs)
	return addrs, err
}

// --- Meta2Backend ---

func (c *HTTPClient) containerPath(url *LogicalURL) string {
	return "/m2/" + url.Namespace + "/" + url.Reference
}

func (c *HTTPClient) contentPath(url *LogicalURL) string {
	return c.containerPath(url) + "/" + url.Path
}

func (c *HTTPClient) CreateContainer(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodPut, addr, c.containerPath(url), nil, nil)
}

func (c *HTTPClient) ListContainer(ctx context.Context, addr string, url *LogicalURL) (BeanList, error) {
	beans := NewBeanList()
	err := c.do(ctx, http.MethodGet, addr, c.containerPath(url), nil, &beans)
	return beans, err
}

func (c *HTTPClient) HeadContainer(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodHead, addr, c.containerPath(url), nil, nil)
}

func (c *HTTPClient) DestroyContainer(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodDelete, addr, c.containerPath(url), nil, nil)
}

func (c *HTTPClient) ContainerAction(ctx context.Context, addr string, url *LogicalURL, action string, body []byte) (BeanList, error) {
	beans := NewBeanList()
	err := c.do(ctx, http.MethodPost, addr, c.containerPath(url)+"?action="+action, json.RawMessage(body), &beans)
	return beans, err
}

func (c *HTTPClient) PutContent(ctx context.Context, addr string, url *LogicalURL, body []byte) error {
	return c.do(ctx, http.MethodPut, addr, c.contentPath(url), json.RawMessage(body), nil)
}

func (c *HTTPClient) GetContent(ctx context.Context, addr string, url *LogicalURL) (BeanList, error) {
	beans := NewBeanList()
	err := c.do(ctx, http.MethodGet, addr, c.contentPath(url), nil, &beans)
	return beans, err
}

func (c *HTTPClient) HeadContent(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodHead, addr, c.contentPath(url), nil, nil)
}

func (c *HTTPClient) DeleteContent(ctx context.Context, addr string, url *LogicalURL) error {
	return c.do(ctx, http.MethodDelete, addr, c.contentPath(url), nil, nil)
}

func (c *HTTPClient) ContentAction(ctx context.Context, addr string, url *LogicalURL, action string, body []byte) (BeanList, error) {
	beans := NewBeanList()
	err := c.do(ctx, http.MethodPost, addr, c.contentPath(url)+"?action="+action, json.RawMessage(body), &beans)
	return beans, err
}

var (
	_ DirectoryClient  = (*HTTPClient)(nil)
	_ ConscienceClient = (*HTTPClient)(nil)
	_ DirBackend       = (*HTTPClient)(nil)
	_ Meta2Backend     = (*HTTPClient)(nil)
)

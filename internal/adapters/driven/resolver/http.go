package resolver

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Resolver properties understood by the HTTP resolver.
const (
	PropertyBasicUsername = "http.basic.username"
	PropertyBasicPassword = "http.basic.password"
	PropertyProxyHost     = "http.proxy.host"
	PropertyProxyPort     = "http.proxy.port"
	PropertyProxyUsername = "http.proxy.username"
	PropertyProxyPassword = "http.proxy.password"
)

const defaultMaxResourceSize = 10 * 1024 * 1024 // 10MB

// HTTPOption is a functional option for configuring the HTTP resolver.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	client  *http.Client
	maxSize int64
}

// WithHTTPClient sets the client used when no proxy property is present.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(o *httpOptions) {
		o.client = c
	}
}

// WithMaxResourceSize sets the maximum response size in bytes.
func WithMaxResourceSize(size int64) HTTPOption {
	return func(o *httpOptions) {
		o.maxSize = size
	}
}

// HTTP fetches http and https resources. It never resolves under secure
// validation.
type HTTP struct {
	httpClient *http.Client
	maxSize    int64
}

// NewHTTP creates an HTTP resolver.
func NewHTTP(opts ...HTTPOption) *HTTP {
	options := &httpOptions{
		maxSize: defaultMaxResourceSize,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.client == nil {
		options.client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{httpClient: options.client, maxSize: options.maxSize}
}

// CanResolve reports whether rc names an http or https resource.
func (h *HTTP) CanResolve(rc ports.ResolverContext) bool {
	if rc.SecureValidation || !rc.HasURI || rc.URI == "" || strings.HasPrefix(rc.URI, "#") {
		return false
	}
	u, err := resolveURI(rc)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Resolve fetches the resource.
func (h *HTTP) Resolve(ctx context.Context, rc ports.ResolverContext) (*domain.SignatureInput, error) {
	u, err := resolveURI(rc)
	if err != nil {
		return nil, domain.ResolverError(rc.URI, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("create request: %w", err))
	}
	if user := rc.Property(PropertyBasicUsername); user != "" {
		req.SetBasicAuth(user, rc.Property(PropertyBasicPassword))
	}

	client, err := h.clientFor(rc)
	if err != nil {
		return nil, domain.ResolverError(rc.URI, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("fetch: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > h.maxSize {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("resource exceeds max size %d bytes", h.maxSize))
	}

	in := domain.NewBytesInput(data)
	in.SetSourceURI(u.String())
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			in.SetMIMEType(mediaType)
		}
	}
	return in, nil
}

// clientFor returns a client routed through the proxy named by the resolver
// properties, or the default client.
func (h *HTTP) clientFor(rc ports.ResolverContext) (*http.Client, error) {
	host := rc.Property(PropertyProxyHost)
	if host == "" {
		return h.httpClient, nil
	}
	port := rc.Property(PropertyProxyPort)
	if port == "" {
		port = "80"
	}
	proxy := &url.URL{Scheme: "http", Host: net.JoinHostPort(host, port)}
	if user := rc.Property(PropertyProxyUsername); user != "" {
		proxy.User = url.UserPassword(user, rc.Property(PropertyProxyPassword))
	}
	var transport *http.Transport
	if base, ok := h.httpClient.Transport.(*http.Transport); ok {
		transport = base.Clone()
	} else {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	transport.Proxy = http.ProxyURL(proxy)
	return &http.Client{Transport: transport, Timeout: h.httpClient.Timeout}, nil
}

var _ ports.ResourceResolver = (*HTTP)(nil)

package resolver

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// CacheOption is a functional option for configuring the caching resolver.
type CacheOption func(*bigcache.Config)

// WithMaxEntrySize sets the expected entry size in bytes used to presize
// the cache shards.
func WithMaxEntrySize(size int) CacheOption {
	return func(c *bigcache.Config) {
		c.MaxEntrySize = size
	}
}

// WithHardMaxCacheSize caps the cache at size megabytes.
func WithHardMaxCacheSize(mb int) CacheOption {
	return func(c *bigcache.Config) {
		c.HardMaxCacheSize = mb
	}
}

// Caching keeps octet content fetched by another resolver for a fixed TTL.
// Node-set and digest-only results pass through uncached.
type Caching struct {
	inner  ports.ResourceResolver
	cache  *bigcache.BigCache
	logger *zap.Logger
}

// NewCaching wraps inner with a TTL cache. Call Close to release it.
func NewCaching(ctx context.Context, inner ports.ResourceResolver, ttl time.Duration, logger *zap.Logger, opts ...CacheOption) (*Caching, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create resource cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caching{inner: inner, cache: cache, logger: logger}, nil
}

// CanResolve delegates to the wrapped resolver.
func (c *Caching) CanResolve(rc ports.ResolverContext) bool {
	return c.inner.CanResolve(rc)
}

// Resolve serves from the cache or fetches and stores the content.
func (c *Caching) Resolve(ctx context.Context, rc ports.ResolverContext) (*domain.SignatureInput, error) {
	key := cacheKey(rc)
	if entry, err := c.cache.Get(key); err == nil {
		mimeType, data, ok := bytes.Cut(entry, []byte{0})
		if ok {
			c.logger.Debug("resource cache hit", zap.String("uri", rc.URI))
			in := domain.NewBytesInput(data)
			in.SetSourceURI(rc.URI)
			in.SetMIMEType(string(mimeType))
			return in, nil
		}
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		c.logger.Warn("resource cache lookup failed", zap.String("uri", rc.URI), zap.Error(err))
	}

	in, err := c.inner.Resolve(ctx, rc)
	if err != nil || !in.IsOctetStream() {
		return in, err
	}
	data, err := in.Bytes()
	if err != nil {
		return nil, domain.ResolverError(rc.URI, err)
	}
	entry := make([]byte, 0, len(in.MIMEType())+1+len(data))
	entry = append(append(append(entry, in.MIMEType()...), 0), data...)
	if err := c.cache.Set(key, entry); err != nil {
		c.logger.Warn("resource cache store failed", zap.String("uri", rc.URI), zap.Error(err))
	}
	return in, nil
}

// Len returns the number of cached resources.
func (c *Caching) Len() int {
	return c.cache.Len()
}

// Close releases the cache.
func (c *Caching) Close() error {
	return c.cache.Close()
}

// cacheKey separates entries by the resolver properties too, so content
// fetched with one manifest's credentials or proxy is never served to another.
func cacheKey(rc ports.ResolverContext) string {
	key := rc.BaseURI + "\x00" + rc.URI
	if len(rc.Properties) == 0 {
		return key
	}
	names := make([]string, 0, len(rc.Properties))
	for name := range rc.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%d:%s%d:%s", len(name), name, len(rc.Properties[name]), rc.Properties[name])
	}
	return key + "\x00" + hex.EncodeToString(h.Sum(nil))
}

var _ ports.ResourceResolver = (*Caching)(nil)

package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/WhileEndless/go-httpmessage/pkg/cache"
	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/wire"
)

// Cache-Status values
const (
	CacheStatusHit = "hit"
	CacheStatusFwd = "fwd"

	// No stored response matched the request URI
	CacheStatusFwdUriMiss = "uri-miss"

	// The request's Cache-Control did not allow a stored response
	CacheStatusFwdRequest = "request"

	// The request method is not cacheable
	CacheStatusFwdMethod = "method"

	// A stored response exists but its Vary header values differ
	CacheStatusFwdVaryMiss = "vary-miss"
)

// CacheConfig configures Cache
type CacheConfig struct {
	// Provider stores the responses (required)
	Provider cache.Provider

	// TTL is the lifetime of stored responses (default: 1 minute)
	TTL time.Duration

	// Name identifies this cache in the Cache-Status header
	// (default: "go-httpmessage")
	Name string

	// Logger receives cache failures (default: discard)
	Logger logging.Logger
}

// Cache answers GET and HEAD requests from stored 200 responses and stores
// fresh ones. A stored response is only served to requests that match the
// header values its Vary field names. Every response carries a
// Cache-Status header. Provider failures are logged and the request is
// forwarded as if uncached.
type Cache struct {
	config CacheConfig
}

// NewCache creates a Cache middleware
func NewCache(config CacheConfig) *Cache {
	if config.TTL <= 0 {
		config.TTL = time.Minute
	}
	if config.Name == "" {
		config.Name = "go-httpmessage"
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}
	return &Cache{config: config}
}

// Process implements Middleware
func (m *Cache) Process(req message.ServerRequest, next Handler) (message.Response, error) {
	if req.Method() != "GET" && req.Method() != "HEAD" {
		resp, err := next.Handle(req)
		if err != nil {
			return resp, err
		}
		return resp.WithAddedHeader("Cache-Status", m.status(CacheStatusFwd, CacheStatusFwdMethod)), nil
	}

	key := cache.HashKey(req.Method(), req.URI().String(), req.HeaderLine("Authorization"))

	reason := CacheStatusFwdUriMiss
	if hasDirective(req.Header("Cache-Control"), "no-cache") {
		reason = CacheStatusFwdRequest
	} else if resp, miss, ok := m.lookup(key, req); ok {
		return resp.WithAddedHeader("Cache-Status", m.status(CacheStatusHit, "")), nil
	} else if miss != "" {
		reason = miss
	}

	resp, err := next.Handle(req)
	if err != nil {
		return resp, err
	}

	status := m.status(CacheStatusFwd, reason)
	if storable(resp) {
		var stored bool
		resp, stored = m.store(key, req, resp)
		if stored {
			status += "; stored"
		}
	}
	return resp.WithAddedHeader("Cache-Status", status), nil
}

// lookup returns the stored response for key. When an entry exists but was
// selected by different Vary header values, miss is CacheStatusFwdVaryMiss.
func (m *Cache) lookup(key string, req message.ServerRequest) (resp message.Response, miss string, ok bool) {
	data, found, err := m.config.Provider.Get(key)
	if err != nil {
		m.config.Logger.Log(logging.Warning, "cache read failed: "+err.Error(), map[string]any{"key": key})
		return message.Response{}, "", false
	}
	if !found {
		return message.Response{}, "", false
	}

	entry, err := cache.UnmarshalEntry(data)
	if err != nil {
		m.config.Logger.Log(logging.Warning, "dropping unreadable cache entry: "+err.Error(), map[string]any{"key": key})
		m.drop(key)
		return message.Response{}, "", false
	}
	for name, value := range entry.Vary {
		if req.HeaderLine(name) != value {
			return message.Response{}, CacheStatusFwdVaryMiss, false
		}
	}
	resp, err = wire.ParseResponse(entry.Wire)
	if err != nil {
		m.config.Logger.Log(logging.Warning, "dropping unparsable cache entry: "+err.Error(), map[string]any{"key": key})
		m.drop(key)
		return message.Response{}, "", false
	}

	age := int(time.Since(entry.StoredAt).Seconds())
	if age < 0 {
		age = 0
	}
	return resp.WithHeader("Age", fmt.Sprint(age)), "", true
}

// store saves resp under key. The body is read once, so the response
// handed back carries a buffered copy of it.
func (m *Cache) store(key string, req message.ServerRequest, resp message.Response) (message.Response, bool) {
	resp = resp.WithBody(stream.FromString(resp.Body().String()))

	data, err := cache.Entry{
		Version:  cache.EntryVersion,
		StoredAt: time.Now().UTC(),
		Wire:     wire.BuildResponse(resp),
		Vary:     varyValues(req, resp),
	}.Marshal()
	if err == nil {
		err = m.config.Provider.Put(key, data, m.config.TTL)
	}
	if err != nil {
		m.config.Logger.Log(logging.Warning, "cache write failed: "+err.Error(), map[string]any{"key": key})
		return resp, false
	}
	return resp, true
}

func (m *Cache) drop(key string) {
	if err := m.config.Provider.Delete(key); err != nil {
		m.config.Logger.Log(logging.Warning, "cache delete failed: "+err.Error(), map[string]any{"key": key})
	}
}

func (m *Cache) status(status, reason string) string {
	s := m.config.Name + "; " + status
	if reason != "" {
		s += "=" + reason
	}
	return s
}

// storable reports whether resp may be stored
func storable(resp message.Response) bool {
	if resp.StatusCode() != 200 || resp.HasHeader("Set-Cookie") {
		return false
	}
	if hasDirective(resp.Header("Vary"), "*") {
		return false
	}
	cc := resp.Header("Cache-Control")
	return !hasDirective(cc, "no-store") && !hasDirective(cc, "private")
}

// varyValues records the request's value for each field named in the
// response's Vary header
func varyValues(req message.ServerRequest, resp message.Response) map[string]string {
	var values map[string]string
	for _, v := range resp.Header("Vary") {
		for _, name := range strings.Split(v, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if values == nil {
				values = make(map[string]string)
			}
			values[name] = req.HeaderLine(name)
		}
	}
	return values
}

// hasDirective reports whether a Cache-Control field list names directive
func hasDirective(values []string, directive string) bool {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), "=")
			if strings.EqualFold(name, directive) {
				return true
			}
		}
	}
	return false
}

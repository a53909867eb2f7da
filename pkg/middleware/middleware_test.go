package middleware

import (
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/WhileEndless/go-httpmessage/pkg/cache"
	"github.com/WhileEndless/go-httpmessage/pkg/compression"
	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
)

var errTest = stderrors.New("backend unavailable")

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery_Panic(t *testing.T) {
	log := &recordingLogger{}
	p := New(HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		panic("boom")
	})).Pipe(NewRecovery(RecoveryConfig{Logger: log}))

	resp, err := p.Handle(newRequest("GET", "/api/posts"))
	if err != nil {
		t.Fatalf("Expected no error after recovery, got %v", err)
	}
	if resp.StatusCode() != 500 {
		t.Errorf("Expected 500, got %d", resp.StatusCode())
	}
	if !strings.Contains(resp.Body().String(), "Internal Server Error") {
		t.Errorf("Unexpected body %q", resp.Body().String())
	}

	if len(log.entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(log.entries))
	}
	if log.entries[0].message != "PANIC: boom" || log.entries[0].level != logging.Error {
		t.Errorf("Unexpected log entry %+v", log.entries[0])
	}
	if stack, _ := log.entries[0].context["stack"].(string); len(stack) > 4<<10 {
		t.Errorf("Stack should be truncated to 4KB, got %d bytes", len(stack))
	}
}

func TestRecovery_CustomHandler(t *testing.T) {
	p := New(HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		panic(errTest)
	})).Pipe(NewRecovery(RecoveryConfig{
		Handler: func(req message.ServerRequest, recovered any) (message.Response, error) {
			return message.NewResponse(503), nil
		},
	}))

	resp, _ := p.Handle(newRequest("GET", "/"))
	if resp.StatusCode() != 503 {
		t.Errorf("Expected custom 503, got %d", resp.StatusCode())
	}
}

func TestRecovery_NoPanic(t *testing.T) {
	p := New(textHandler(201, "created")).Pipe(NewRecovery(DefaultRecoveryConfig()))

	resp, err := p.Handle(newRequest("POST", "/"))
	if err != nil || resp.StatusCode() != 201 {
		t.Errorf("Expected passthrough 201, got %d %v", resp.StatusCode(), err)
	}
}

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestID_Generated(t *testing.T) {
	var seen string
	p := New(HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		seen = RequestIDFrom(req)
		return message.NewResponse(200), nil
	})).Pipe(NewRequestID(false))

	resp, _ := p.Handle(newRequest("GET", "/", message.Header(RequestIDHeader, "client-id")))
	if seen == "" || seen == "client-id" {
		t.Errorf("Expected generated ID, got %q", seen)
	}
	if resp.HeaderLine(RequestIDHeader) != seen {
		t.Errorf("Expected response header %q, got %q", seen, resp.HeaderLine(RequestIDHeader))
	}

	resp2, _ := p.Handle(newRequest("GET", "/"))
	if resp2.HeaderLine(RequestIDHeader) == resp.HeaderLine(RequestIDHeader) {
		t.Error("Expected a new ID per request")
	}
}

func TestRequestID_Trusted(t *testing.T) {
	p := New(textHandler(200, "")).Pipe(NewRequestID(true))

	resp, _ := p.Handle(newRequest("GET", "/", message.Header(RequestIDHeader, "client-id")))
	if resp.HeaderLine(RequestIDHeader) != "client-id" {
		t.Errorf("Expected trusted ID, got %q", resp.HeaderLine(RequestIDHeader))
	}
}

// ============================================================================
// Compression Tests
// ============================================================================

func TestCompression_Negotiated(t *testing.T) {
	body := strings.Repeat(`{"message":"Blog API response"}`, 40)
	p := New(textHandler(200, body)).Pipe(NewCompression(CompressionConfig{}))

	tests := []struct {
		accept   string
		encoding string
	}{
		{"gzip", "gzip"},
		{"gzip, br", "br"},
		{"zstd;q=1, br;q=0.5", "zstd"},
		{"deflate", "deflate"},
		{"", ""},
		{"compress", ""},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			var opts []message.Option
			if tt.accept != "" {
				opts = append(opts, message.Header("Accept-Encoding", tt.accept))
			}
			resp, err := p.Handle(newRequest("GET", "/", opts...))
			if err != nil {
				t.Fatal(err)
			}

			if resp.HeaderLine("Content-Encoding") != tt.encoding {
				t.Fatalf("Expected encoding %q, got %q", tt.encoding, resp.HeaderLine("Content-Encoding"))
			}
			if resp.HeaderLine("Vary") != "Accept-Encoding" {
				t.Errorf("Expected Vary: Accept-Encoding, got %q", resp.HeaderLine("Vary"))
			}
			if tt.encoding == "" {
				if resp.Body().String() != body {
					t.Error("Body should be untouched without a negotiated coding")
				}
				return
			}

			coding, _ := compression.ParseCoding(tt.encoding)
			decoded, err := compression.Decode([]byte(resp.Body().String()), coding)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if string(decoded) != body {
				t.Error("Decoded body mismatch")
			}
		})
	}
}

func TestCompression_Skipped(t *testing.T) {
	large := strings.Repeat("x", 1024)

	tests := []struct {
		name    string
		method  string
		handler Handler
	}{
		{"small body", "GET", textHandler(200, "tiny")},
		{"no content", "GET", textHandler(204, "")},
		{"not modified", "GET", textHandler(304, "")},
		{"head", "HEAD", textHandler(200, large)},
		{"already encoded", "GET", HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
			return message.NewResponse(200, message.BodyString(large), message.Header("Content-Encoding", "gzip")), nil
		})},
		{"no-transform", "GET", HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
			return message.NewResponse(200, message.BodyString(large), message.Header("Cache-Control", "public, no-transform")), nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.handler).Pipe(NewCompression(DefaultCompressionConfig()))
			resp, _ := p.Handle(newRequest(tt.method, "/", message.Header("Accept-Encoding", "gzip")))
			if resp.HeaderLine("Content-Encoding") == "gzip" && tt.name != "already encoded" {
				t.Error("Response should not be compressed")
			}
			if tt.name == "already encoded" && resp.Body().String() != large {
				t.Error("Already encoded body should be untouched")
			}
		})
	}
}

// ============================================================================
// Cache Tests
// ============================================================================

func TestCache_MissThenHit(t *testing.T) {
	calls := 0
	handler := HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		calls++
		return message.JSON(200, map[string]string{"path": req.URI().Path()})
	})
	p := New(handler).Pipe(NewCache(CacheConfig{Provider: cache.NewMemoryCache(), Name: "blog"}))

	first, err := p.Handle(newRequest("GET", "/api/posts"))
	if err != nil {
		t.Fatal(err)
	}
	if first.HeaderLine("Cache-Status") != "blog; fwd=uri-miss; stored" {
		t.Errorf("Unexpected first Cache-Status %q", first.HeaderLine("Cache-Status"))
	}

	second, err := p.Handle(newRequest("GET", "/api/posts"))
	if err != nil {
		t.Fatal(err)
	}
	if second.HeaderLine("Cache-Status") != "blog; hit" {
		t.Errorf("Unexpected second Cache-Status %q", second.HeaderLine("Cache-Status"))
	}
	if second.Body().String() != `{"path":"/api/posts"}` {
		t.Errorf("Unexpected cached body %q", second.Body().String())
	}
	if second.HeaderLine("Content-Type") != "application/json" {
		t.Errorf("Cached response lost its headers: %v", second.Headers())
	}
	if !second.HasHeader("Age") {
		t.Error("Cached response should carry Age")
	}
	if calls != 1 {
		t.Errorf("Expected handler to run once, got %d", calls)
	}

	other, _ := p.Handle(newRequest("GET", "/api/posts?page=2"))
	if !strings.Contains(other.HeaderLine("Cache-Status"), "uri-miss") {
		t.Errorf("Different URI should miss, got %q", other.HeaderLine("Cache-Status"))
	}
}

func TestCache_NotStored(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		handler Handler
		status  string
	}{
		{"post", "POST", textHandler(200, "x"), "go-httpmessage; fwd=method"},
		{"not found", "GET", textHandler(404, "x"), "go-httpmessage; fwd=uri-miss"},
		{"no-store", "GET", HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
			return message.NewResponse(200, message.Header("Cache-Control", "no-store")), nil
		}), "go-httpmessage; fwd=uri-miss"},
		{"set-cookie", "GET", HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
			return message.NewResponse(200, message.Header("Set-Cookie", "a=1")), nil
		}), "go-httpmessage; fwd=uri-miss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := cache.NewMemoryCache()
			p := New(tt.handler).Pipe(NewCache(CacheConfig{Provider: provider}))

			resp, _ := p.Handle(newRequest(tt.method, "/"))
			if resp.HeaderLine("Cache-Status") != tt.status {
				t.Errorf("Expected %q, got %q", tt.status, resp.HeaderLine("Cache-Status"))
			}
			if provider.Len() != 0 {
				t.Errorf("Expected nothing stored, got %d entries", provider.Len())
			}
		})
	}
}

func TestCache_RequestNoCache(t *testing.T) {
	calls := 0
	p := New(HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		calls++
		return message.NewResponse(200, message.BodyString("fresh")), nil
	})).Pipe(NewCache(CacheConfig{Provider: cache.NewMemoryCache(), TTL: time.Hour}))

	p.Handle(newRequest("GET", "/"))
	resp, _ := p.Handle(newRequest("GET", "/", message.Header("Cache-Control", "no-cache")))

	if calls != 2 {
		t.Errorf("no-cache request should reach the handler, got %d calls", calls)
	}
	if resp.HeaderLine("Cache-Status") != "go-httpmessage; fwd=request; stored" {
		t.Errorf("Unexpected Cache-Status %q", resp.HeaderLine("Cache-Status"))
	}
}

func TestCache_SeparatesCredentials(t *testing.T) {
	p := New(HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		return message.NewResponse(200, message.BodyString(req.HeaderLine("Authorization"))), nil
	})).Pipe(NewCache(CacheConfig{Provider: cache.NewMemoryCache()}))

	p.Handle(newRequest("GET", "/", message.Header("Authorization", "Bearer a")))
	resp, _ := p.Handle(newRequest("GET", "/", message.Header("Authorization", "Bearer b")))
	if resp.Body().String() != "Bearer b" {
		t.Errorf("Response for one token must not be served to another, got %q", resp.Body().String())
	}
}

func TestCache_CorruptEntryDropped(t *testing.T) {
	provider := cache.NewMemoryCache()
	log := &recordingLogger{}
	p := New(textHandler(200, "ok")).Pipe(NewCache(CacheConfig{Provider: provider, Logger: log}))

	key := cache.HashKey("GET", "http://localhost/", "")
	provider.Put(key, []byte("garbage"), 0)

	resp, err := p.Handle(newRequest("GET", "/"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Body().String() != "ok" || !strings.Contains(resp.HeaderLine("Cache-Status"), "stored") {
		t.Errorf("Expected fresh response replacing corrupt entry, got %q %q", resp.Body().String(), resp.HeaderLine("Cache-Status"))
	}
	if len(log.entries) != 1 || log.entries[0].level != logging.Warning {
		t.Errorf("Expected one warning, got %+v", log.entries)
	}
}

func TestCache_VaryByEncoding(t *testing.T) {
	payload := strings.Repeat("compressible post body ", 50)
	calls := 0
	handler := HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		calls++
		return message.NewResponse(200, message.BodyString(payload)), nil
	})
	p := New(handler).
		Pipe(NewCache(CacheConfig{Provider: cache.NewMemoryCache(), Name: "blog"})).
		Pipe(NewCompression(DefaultCompressionConfig()))

	brotli, err := p.Handle(newRequest("GET", "/api/posts", message.Header("Accept-Encoding", "br")))
	if err != nil {
		t.Fatal(err)
	}
	if brotli.HeaderLine("Content-Encoding") != "br" {
		t.Fatalf("Expected br response, got %q", brotli.HeaderLine("Content-Encoding"))
	}

	plain, err := p.Handle(newRequest("GET", "/api/posts"))
	if err != nil {
		t.Fatal(err)
	}
	if plain.HasHeader("Content-Encoding") || plain.Body().String() != payload {
		t.Errorf("Expected plain body for a client without Accept-Encoding, got %q", plain.HeaderLine("Content-Encoding"))
	}
	if plain.HeaderLine("Cache-Status") != "blog; fwd=vary-miss; stored" {
		t.Errorf("Unexpected Cache-Status %q", plain.HeaderLine("Cache-Status"))
	}

	again, err := p.Handle(newRequest("GET", "/api/posts"))
	if err != nil {
		t.Fatal(err)
	}
	if again.HeaderLine("Cache-Status") != "blog; hit" || again.Body().String() != payload {
		t.Errorf("Expected plain hit, got %q", again.HeaderLine("Cache-Status"))
	}
	if calls != 2 {
		t.Errorf("Expected handler to run twice, got %d", calls)
	}
}

func TestCache_VaryStarNotStored(t *testing.T) {
	provider := cache.NewMemoryCache()
	handler := HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		return message.NewResponse(200, message.BodyString("ok"), message.Header("Vary", "*")), nil
	})
	p := New(handler).Pipe(NewCache(CacheConfig{Provider: provider, Name: "blog"}))

	resp, err := p.Handle(newRequest("GET", "/"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.HeaderLine("Cache-Status") != "blog; fwd=uri-miss" || provider.Len() != 0 {
		t.Errorf("Vary: * should not be stored, got %q", resp.HeaderLine("Cache-Status"))
	}
}

func TestCache_StoredBodyStillReturned(t *testing.T) {
	handler := HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		body := stream.FromHandle(io.MultiReader(strings.NewReader("payload")))
		return message.NewResponse(200, message.Body(body)), nil
	})
	p := New(handler).Pipe(NewCache(CacheConfig{Provider: cache.NewMemoryCache(), Name: "blog"}))

	first, err := p.Handle(newRequest("GET", "/stream"))
	if err != nil {
		t.Fatal(err)
	}
	if first.HeaderLine("Cache-Status") != "blog; fwd=uri-miss; stored" {
		t.Errorf("Unexpected Cache-Status %q", first.HeaderLine("Cache-Status"))
	}
	if first.Body().String() != "payload" {
		t.Errorf("Expected the storing response to keep its body, got %q", first.Body().String())
	}

	second, _ := p.Handle(newRequest("GET", "/stream"))
	if second.Body().String() != "payload" {
		t.Errorf("Unexpected cached body %q", second.Body().String())
	}
}

// stickyProvider fails every Delete
type stickyProvider struct {
	*cache.MemoryCache
}

func (stickyProvider) Delete(key string) error {
	return errTest
}

func TestCache_DeleteFailureLogged(t *testing.T) {
	provider := stickyProvider{cache.NewMemoryCache()}
	log := &recordingLogger{}
	p := New(textHandler(200, "ok")).Pipe(NewCache(CacheConfig{Provider: provider, Logger: log}))

	provider.Put(cache.HashKey("GET", "http://localhost/", ""), []byte("garbage"), 0)

	if _, err := p.Handle(newRequest("GET", "/")); err != nil {
		t.Fatal(err)
	}
	if len(log.entries) != 2 {
		t.Fatalf("Expected two warnings, got %+v", log.entries)
	}
	if !strings.Contains(log.entries[1].message, "cache delete failed") {
		t.Errorf("Expected delete failure to be logged, got %q", log.entries[1].message)
	}
}

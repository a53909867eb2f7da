package cache

import (
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

func providers(t *testing.T) map[string]Provider {
	t.Helper()

	sqlite, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Provider{
		"sqlite": sqlite,
		"memory": NewMemoryCache(),
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"posts", true},
		{"posts.page-1_v2", true},
		{HashKey("GET", "http://example.com/api"), true},
		{"", false},
		{"a:b", false},
		{"a/b", false},
		{"{x}", false},
		{"(x)", false},
		{"a@b", false},
		{`a\b`, false},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid && err != nil {
			t.Errorf("ValidateKey(%q): unexpected error %v", tt.key, err)
		}
		if !tt.valid && !stderrors.Is(err, errors.ErrInvalidArgument) {
			t.Errorf("ValidateKey(%q): expected invalid argument error, got %v", tt.key, err)
		}
	}
}

func TestHashKey_Deterministic(t *testing.T) {
	if HashKey("GET", "/a") != HashKey("GET", "/a") {
		t.Error("HashKey should be deterministic")
	}
	if HashKey("GET", "/a") == HashKey("HEAD", "/a") {
		t.Error("Different parts should give different keys")
	}
}

func TestProvider_PutGetDelete(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := p.Get("missing"); ok || err != nil {
				t.Errorf("Expected miss without error, got %v %v", ok, err)
			}

			if err := p.Put("post-1", []byte("hello"), 0); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			value, ok, err := p.Get("post-1")
			if err != nil || !ok || string(value) != "hello" {
				t.Errorf("Expected hit with 'hello', got %q %v %v", value, ok, err)
			}

			if err := p.Put("post-1", []byte("replaced"), 0); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			value, _, _ = p.Get("post-1")
			if string(value) != "replaced" {
				t.Errorf("Expected replaced value, got %q", value)
			}

			if has, _ := p.Has("post-1"); !has {
				t.Error("Has should report stored key")
			}
			if err := p.Delete("post-1"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if has, _ := p.Has("post-1"); has {
				t.Error("Has should be false after Delete")
			}
			if err := p.Delete("post-1"); err != nil {
				t.Errorf("Deleting a missing key should not fail: %v", err)
			}
		})
	}
}

func TestProvider_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	sqlite, err := NewSQLiteCache(filepath.Join(t.TempDir(), "expiry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sqlite.Close()
	sqlite.now = clock

	memory := NewMemoryCache()
	memory.now = clock

	for name, p := range map[string]Provider{"sqlite": sqlite, "memory": memory} {
		t.Run(name, func(t *testing.T) {
			if err := p.Put("short", []byte("x"), time.Minute); err != nil {
				t.Fatal(err)
			}
			if err := p.Put("forever", []byte("y"), 0); err != nil {
				t.Fatal(err)
			}

			if _, ok, _ := p.Get("short"); !ok {
				t.Error("Entry should be live before its ttl")
			}

			now = now.Add(2 * time.Minute)
			defer func() { now = now.Add(-2 * time.Minute) }()

			if _, ok, _ := p.Get("short"); ok {
				t.Error("Entry should be expired after its ttl")
			}
			if _, ok, _ := p.Get("forever"); !ok {
				t.Error("Entry without ttl should not expire")
			}
		})
	}
}

func TestProvider_Clear(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			p.Put("a", []byte("1"), 0)
			p.Put("b", []byte("2"), 0)
			if err := p.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			for _, key := range []string{"a", "b"} {
				if has, _ := p.Has(key); has {
					t.Errorf("Key %s should be gone after Clear", key)
				}
			}
		})
	}
}

func TestProvider_InvalidKey(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if err := p.Put("http://x", []byte("v"), 0); !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Errorf("Put: expected invalid argument error, got %v", err)
			}
			if _, _, err := p.Get(""); !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Errorf("Get: expected invalid argument error, got %v", err)
			}
		})
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	m := NewMemoryCache()
	value := []byte("abc")
	m.Put("k", value, 0)
	value[0] = 'X'
	if m.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", m.Len())
	}

	got, _, _ := m.Get("k")
	if string(got) != "abc" {
		t.Errorf("Stored value should not alias caller slice, got %q", got)
	}
	got[1] = 'Y'
	again, _, _ := m.Get("k")
	if string(again) != "abc" {
		t.Errorf("Returned value should not alias stored slice, got %q", again)
	}
}

func TestSQLiteCache_Purge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "purge.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.now = func() time.Time { return now }

	c.Put("old", []byte("1"), time.Second)
	c.Put("keep", []byte("2"), 0)
	now = now.Add(time.Hour)

	n, err := c.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 purged entry, got %d", n)
	}
}

func TestOpen(t *testing.T) {
	p, err := Open(Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := p.(*MemoryCache); !ok {
		t.Errorf("Expected memory cache by default, got %T", p)
	}

	p, err = Open(Options{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "open.db")})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	defer p.Close()
	if _, ok := p.(*SQLiteCache); !ok {
		t.Errorf("Expected sqlite cache, got %T", p)
	}

	if _, err := Open(Options{Driver: "redis"}); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Expected invalid argument for unknown driver, got %v", err)
	}
}

func TestEntry_MarshalUnmarshal(t *testing.T) {
	stored := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	data, err := Entry{
		Version:  EntryVersion,
		StoredAt: stored,
		Wire:     []byte("HTTP/1.1 200 OK\r\n\r\n"),
		Vary:     map[string]string{"accept-encoding": "br"},
	}.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	e, err := UnmarshalEntry(data)
	if err != nil {
		t.Fatalf("UnmarshalEntry failed: %v", err)
	}
	if !e.StoredAt.Equal(stored) || string(e.Wire) != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e.Vary["accept-encoding"] != "br" {
		t.Errorf("Expected vary values to survive, got %v", e.Vary)
	}

	if _, err := UnmarshalEntry([]byte(`{"version":1}`)); !stderrors.Is(err, errors.ErrMalformedMessage) {
		t.Errorf("Expected malformed error for unknown version, got %v", err)
	}
	if _, err := UnmarshalEntry([]byte("not json")); !stderrors.Is(err, errors.ErrMalformedMessage) {
		t.Errorf("Expected malformed error for invalid JSON, got %v", err)
	}
}

func TestSQLiteCache_InMemoryInstancesIsolated(t *testing.T) {
	a, err := NewSQLiteCache("")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteCache("")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := a.Put("k", []byte("a"), 0); err != nil {
		t.Fatal(err)
	}
	if err := b.Put("other", []byte("b"), 0); err != nil {
		t.Fatal(err)
	}
	if has, _ := b.Has("k"); has {
		t.Error("In-memory caches should not share entries")
	}

	if err := b.Clear(); err != nil {
		t.Fatal(err)
	}
	if value, ok, _ := a.Get("k"); !ok || string(value) != "a" {
		t.Errorf("Clear on one cache should not touch another, got %q %v", value, ok)
	}
}

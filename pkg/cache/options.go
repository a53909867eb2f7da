package cache

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// Options selects and configures a Provider
type Options struct {
	Driver string        `yaml:"driver"` // sqlite or memory
	DSN    string        `yaml:"dsn"`    // SQLite file; empty for an in-memory database
	TTL    time.Duration `yaml:"ttl"`    // Default entry lifetime
}

// SetDefaults fills empty fields
func (o *Options) SetDefaults() {
	if o.Driver == "" {
		o.Driver = "memory"
	}
	if o.TTL == 0 {
		o.TTL = time.Minute
	}
}

// Open creates the Provider named by opts.Driver
func Open(opts Options) (Provider, error) {
	opts.SetDefaults()
	switch opts.Driver {
	case "sqlite":
		return NewSQLiteCache(opts.DSN)
	case "memory":
		return NewMemoryCache(), nil
	}
	return nil, errors.InvalidArgument("unknown cache driver: "+opts.Driver, "cache.Open")
}

// EntryVersion is the current Entry format
const EntryVersion = 2

// Entry is the stored form of a cached message: its HTTP/1.1 wire bytes
// plus when it was stored
type Entry struct {
	Version  int       `json:"version"`
	StoredAt time.Time `json:"stored_at"`
	Wire     []byte    `json:"wire"`

	// Vary maps each lowercased field name listed in the response's Vary
	// header to the request's value for it when the entry was stored
	Vary map[string]string `json:"vary,omitempty"`
}

// Marshal encodes the entry as JSON
func (e Entry) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeMalformedMessage, "failed to encode cache entry", "cache.Entry.Marshal", err)
	}
	return data, nil
}

// UnmarshalEntry decodes an entry written by Marshal. Entries of another
// version are rejected.
func UnmarshalEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, errors.NewError(errors.ErrorTypeMalformedMessage, "failed to decode cache entry", "cache.UnmarshalEntry", err)
	}
	if e.Version != EntryVersion {
		return Entry{}, errors.Malformed("unsupported cache entry version", "cache.UnmarshalEntry")
	}
	return e, nil
}

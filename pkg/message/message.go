// Package message implements immutable HTTP message values: Request,
// ServerRequest and Response.
//
// Every With* method returns a new value and leaves the receiver untouched.
// Header tables and parameter maps are copied on write, so a derived message
// never shares mutable state with the one it came from. The body is the one
// exception: it is a *stream.Stream with a mutable position, and WithBody
// (or any other With*) hands the same stream to the derived message. Treat
// passing a body along as a transfer of ownership.
package message

import (
	"github.com/WhileEndless/go-httpmessage/pkg/headers"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
)

// DefaultProtocolVersion is used when no protocol version is given
const DefaultProtocolVersion = "1.1"

// message holds the parts shared by requests and responses. Its exported
// getters are promoted to the embedding types; the unexported mutators
// return modified copies for the embedding types' With* methods.
type message struct {
	protocol string
	headers  *headers.Headers
	body     *stream.Stream
}

func newMessage(opts []Option) message {
	m := message{
		protocol: DefaultProtocolVersion,
		headers:  headers.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.body == nil {
		m.body = stream.New()
	}
	return m
}

// Option configures a message at construction
type Option func(*message)

// Protocol sets the protocol version, e.g. "1.1" or "2"
func Protocol(version string) Option {
	return func(m *message) {
		m.protocol = version
	}
}

// Header adds values for name. Repeated options for the same name append.
func Header(name string, values ...string) Option {
	return func(m *message) {
		m.headers.Add(name, values...)
	}
}

// Headers copies every field of h, in order
func Headers(h *headers.Headers) Option {
	return func(m *message) {
		for _, f := range h.All() {
			m.headers.Add(f.Name, f.Values...)
		}
	}
}

// Body sets the body stream. The message takes ownership of s.
func Body(s *stream.Stream) Option {
	return func(m *message) {
		m.body = s
	}
}

// BodyString sets an in-memory body holding content
func BodyString(content string) Option {
	return func(m *message) {
		m.body = stream.FromString(content)
	}
}

// ProtocolVersion returns the HTTP version without the "HTTP/" prefix
func (m message) ProtocolVersion() string {
	if m.protocol == "" {
		return DefaultProtocolVersion
	}
	return m.protocol
}

// Headers returns a copy of the header table keyed by lowercased name
func (m message) Headers() map[string][]string {
	return m.headers.Map()
}

// HeaderFields returns every header in order with its original-case name
func (m message) HeaderFields() []headers.Field {
	return m.headers.All()
}

// HasHeader reports whether name is present (case-insensitive)
func (m message) HasHeader(name string) bool {
	return m.headers.Has(name)
}

// Header returns the values for name (case-insensitive), or an empty slice
func (m message) Header(name string) []string {
	return m.headers.Get(name)
}

// HeaderLine returns the values for name joined with ", ", or ""
func (m message) HeaderLine(name string) string {
	return m.headers.Line(name)
}

// Body returns the body stream. A zero-value message has an empty body.
func (m message) Body() *stream.Stream {
	if m.body == nil {
		return stream.New()
	}
	return m.body
}

func (m message) withProtocolVersion(version string) message {
	m.protocol = version
	return m
}

func (m message) withHeader(name string, values []string) message {
	m.headers = m.headers.Clone()
	m.headers.Set(name, values...)
	return m
}

func (m message) withAddedHeader(name string, values []string) message {
	m.headers = m.headers.Clone()
	m.headers.Add(name, values...)
	return m
}

func (m message) withoutHeader(name string) message {
	if !m.headers.Has(name) {
		return m
	}
	m.headers = m.headers.Clone()
	m.headers.Del(name)
	return m
}

func (m message) withBody(body *stream.Stream) message {
	m.body = body
	return m
}

package message

import (
	"strconv"

	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

// Request is an outgoing (client-side) HTTP request.
//
// The method is kept exactly as given: "get" and "GET" are different
// methods, and nothing here uppercases them.
type Request struct {
	message
	method string
	target string // Explicit request-target; "" means derive from the URI
	uri    uri.URI
}

// NewRequest creates a request for method and u. A Host header is derived
// from the URI unless one was supplied through the options.
func NewRequest(method string, u uri.URI, opts ...Option) Request {
	r := Request{
		message: newMessage(opts),
		method:  method,
		uri:     u,
	}
	if !r.headers.Has("Host") {
		if host := hostHeader(u); host != "" {
			r.headers.Set("Host", host)
		}
	}
	return r
}

func hostHeader(u uri.URI) string {
	host := u.Host()
	if host == "" {
		return ""
	}
	if port, ok := u.Port(); ok {
		host += ":" + strconv.Itoa(port)
	}
	return host
}

// Method returns the request method
func (r Request) Method() string {
	return r.method
}

// RequestTarget returns the explicit request-target if one was set,
// otherwise "path[?query]" from the URI, defaulting to "/"
func (r Request) RequestTarget() string {
	if r.target != "" {
		return r.target
	}
	return r.uri.RequestTarget()
}

// URI returns the request URI
func (r Request) URI() uri.URI {
	return r.uri
}

// WithMethod returns a copy with the method replaced
func (r Request) WithMethod(method string) Request {
	r.method = method
	return r
}

// WithRequestTarget returns a copy with an explicit request-target, such as
// "*" for OPTIONS or an absolute-form target for proxies
func (r Request) WithRequestTarget(target string) Request {
	r.target = target
	return r
}

// WithURI returns a copy with the URI replaced. The Host header is updated
// from the new URI when it has a host, unless preserveHost is set and the
// request already carries a Host header.
func (r Request) WithURI(u uri.URI, preserveHost bool) Request {
	r.uri = u
	if preserveHost && r.headers.Has("Host") {
		return r
	}
	if host := hostHeader(u); host != "" {
		r.message = r.withHeader("Host", []string{host})
	}
	return r
}

// WithProtocolVersion returns a copy with the protocol version replaced
func (r Request) WithProtocolVersion(version string) Request {
	r.message = r.withProtocolVersion(version)
	return r
}

// WithHeader returns a copy with all values for name replaced
func (r Request) WithHeader(name string, values ...string) Request {
	r.message = r.withHeader(name, values)
	return r
}

// WithAddedHeader returns a copy with values appended to name
func (r Request) WithAddedHeader(name string, values ...string) Request {
	r.message = r.withAddedHeader(name, values)
	return r
}

// WithoutHeader returns a copy without name
func (r Request) WithoutHeader(name string) Request {
	r.message = r.withoutHeader(name)
	return r
}

// WithBody returns a copy using body. The previous body is not closed.
func (r Request) WithBody(body *stream.Stream) Request {
	r.message = r.withBody(body)
	return r
}

// Package factory constructs messages, streams and URIs with their defaults.
//
// The interfaces let middleware and handlers build responses without
// depending on a concrete message implementation; Factory implements all of
// them and is what New returns.
package factory

import (
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

// ResponseFactory creates responses
type ResponseFactory interface {
	// CreateResponse returns a response with an empty body. An empty reason
	// selects the standard phrase for code.
	CreateResponse(code int, reason string) message.Response
}

// StreamFactory creates body streams
type StreamFactory interface {
	// CreateStream returns an in-memory stream holding content, positioned at 0
	CreateStream(content string) *stream.Stream
	// CreateStreamFromFile opens path with an fopen-style mode
	CreateStreamFromFile(path, mode string) (*stream.Stream, error)
	// CreateStreamFromResource wraps an already-open handle without
	// validating its mode
	CreateStreamFromResource(handle any) *stream.Stream
}

// RequestFactory creates client requests
type RequestFactory interface {
	CreateRequest(method, target string) (message.Request, error)
}

// ServerRequestFactory creates server requests
type ServerRequestFactory interface {
	CreateServerRequest(method, target string, serverParams map[string]string) (message.ServerRequest, error)
}

// UriFactory parses URIs
type UriFactory interface {
	CreateURI(s string) (uri.URI, error)
}

// Factory implements every factory interface
type Factory struct{}

// New returns a Factory
func New() *Factory {
	return &Factory{}
}

var (
	_ ResponseFactory      = (*Factory)(nil)
	_ StreamFactory        = (*Factory)(nil)
	_ RequestFactory       = (*Factory)(nil)
	_ ServerRequestFactory = (*Factory)(nil)
	_ UriFactory           = (*Factory)(nil)
)

// CreateResponse returns a response with an empty body
func (f *Factory) CreateResponse(code int, reason string) message.Response {
	return message.NewResponse(code).WithStatus(code, reason)
}

// CreateStream returns an in-memory stream holding content, positioned at 0
func (f *Factory) CreateStream(content string) *stream.Stream {
	return stream.FromString(content)
}

// CreateStreamFromFile opens path. A failed open is an ErrStreamIO error;
// an unknown mode is an ErrInvalidArgument error.
func (f *Factory) CreateStreamFromFile(path, mode string) (*stream.Stream, error) {
	return stream.Open(path, mode)
}

// CreateStreamFromResource wraps handle
func (f *Factory) CreateStreamFromResource(handle any) *stream.Stream {
	return stream.FromHandle(handle)
}

// CreateRequest parses target and returns a request for it
func (f *Factory) CreateRequest(method, target string) (message.Request, error) {
	u, err := uri.Parse(target)
	if err != nil {
		return message.Request{}, err
	}
	return message.NewRequest(method, u), nil
}

// CreateServerRequest parses target and returns a server request for it,
// with query parameters taken from the URI
func (f *Factory) CreateServerRequest(method, target string, serverParams map[string]string) (message.ServerRequest, error) {
	u, err := uri.Parse(target)
	if err != nil {
		return message.ServerRequest{}, err
	}
	return message.ServerRequestFromRequest(message.NewRequest(method, u), serverParams), nil
}

// CreateURI parses s
func (f *Factory) CreateURI(s string) (uri.URI, error) {
	return uri.Parse(s)
}

package message

import (
	"maps"

	"github.com/goccy/go-json"

	"github.com/WhileEndless/go-httpmessage/pkg/cookies"
	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

// ServerRequest is an incoming (server-side) request with the environment
// it arrived in: server parameters, cookies, query parameters, uploaded
// files, a parsed body and free-form attributes that middleware use to pass
// data down the chain.
//
// Getters return copies of the parameter maps; modify them through the
// With* methods.
type ServerRequest struct {
	Request
	serverParams  map[string]string
	cookieParams  map[string]string
	queryParams   map[string][]string
	uploadedFiles map[string]UploadedFile
	parsedBody    any
	attributes    map[string]any
}

// NewServerRequest creates a server request. Host is derived as for
// NewRequest. Cookie and query parameters start empty; use
// ServerRequestFromRequest or the With* methods to fill them.
func NewServerRequest(method string, u uri.URI, serverParams map[string]string, opts ...Option) ServerRequest {
	return ServerRequest{
		Request:      NewRequest(method, u, opts...),
		serverParams: maps.Clone(serverParams),
	}
}

// ServerRequestFromRequest wraps r and fills the cookie parameters from its
// Cookie headers and the query parameters from its URI
func ServerRequestFromRequest(r Request, serverParams map[string]string) ServerRequest {
	return ServerRequest{
		Request:      r,
		serverParams: maps.Clone(serverParams),
		cookieParams: cookies.Params(r.Header("Cookie")...),
		queryParams:  r.URI().QueryParams(),
	}
}

// ServerParams returns the server/environment parameters
func (r ServerRequest) ServerParams() map[string]string {
	return cloneOrEmpty(r.serverParams)
}

// ServerParam returns one server parameter
func (r ServerRequest) ServerParam(name string) (string, bool) {
	v, ok := r.serverParams[name]
	return v, ok
}

// CookieParams returns the cookies sent with the request
func (r ServerRequest) CookieParams() map[string]string {
	return cloneOrEmpty(r.cookieParams)
}

// QueryParams returns the decoded query parameters
func (r ServerRequest) QueryParams() map[string][]string {
	out := make(map[string][]string, len(r.queryParams))
	for k, v := range r.queryParams {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// UploadedFiles returns the uploaded files keyed by form field name
func (r ServerRequest) UploadedFiles() map[string]UploadedFile {
	return cloneOrEmpty(r.uploadedFiles)
}

// ParsedBody returns the deserialized body, or nil
func (r ServerRequest) ParsedBody() any {
	return r.parsedBody
}

// Attributes returns every request attribute
func (r ServerRequest) Attributes() map[string]any {
	return cloneOrEmpty(r.attributes)
}

// Attribute returns one request attribute
func (r ServerRequest) Attribute(name string) (any, bool) {
	v, ok := r.attributes[name]
	return v, ok
}

// AttributeOr returns the attribute name, or def when it is not set
func (r ServerRequest) AttributeOr(name string, def any) any {
	if v, ok := r.attributes[name]; ok {
		return v
	}
	return def
}

// WithCookieParams returns a copy with the cookie parameters replaced.
// The Cookie header is left as is.
func (r ServerRequest) WithCookieParams(params map[string]string) ServerRequest {
	r.cookieParams = maps.Clone(params)
	return r
}

// WithQueryParams returns a copy with the query parameters replaced.
// The URI is left as is.
func (r ServerRequest) WithQueryParams(params map[string][]string) ServerRequest {
	q := make(map[string][]string, len(params))
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	r.queryParams = q
	return r
}

// WithUploadedFiles returns a copy with the uploaded files replaced
func (r ServerRequest) WithUploadedFiles(files map[string]UploadedFile) ServerRequest {
	r.uploadedFiles = maps.Clone(files)
	return r
}

// WithParsedBody returns a copy with the parsed body replaced. The value is
// stored as given; nil clears it.
func (r ServerRequest) WithParsedBody(body any) ServerRequest {
	r.parsedBody = body
	return r
}

// WithParsedJSON decodes the body as JSON and returns a copy with the
// result as parsed body. The body stream is rewound and read in full.
// An empty body yields a nil parsed body.
func (r ServerRequest) WithParsedJSON() (ServerRequest, error) {
	content := r.Body().String()
	if content == "" {
		return r.WithParsedBody(nil), nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return r, errors.NewError(errors.ErrorTypeMalformedMessage, "request body is not valid JSON", "message.WithParsedJSON", err)
	}
	return r.WithParsedBody(parsed), nil
}

// WithAttribute returns a copy with attribute name set to value
func (r ServerRequest) WithAttribute(name string, value any) ServerRequest {
	attrs := make(map[string]any, len(r.attributes)+1)
	maps.Copy(attrs, r.attributes)
	attrs[name] = value
	r.attributes = attrs
	return r
}

// WithoutAttribute returns a copy without attribute name
func (r ServerRequest) WithoutAttribute(name string) ServerRequest {
	if _, ok := r.attributes[name]; !ok {
		return r
	}
	attrs := maps.Clone(r.attributes)
	delete(attrs, name)
	r.attributes = attrs
	return r
}

// The Request mutators are redeclared so they return a ServerRequest.

// WithMethod returns a copy with the method replaced
func (r ServerRequest) WithMethod(method string) ServerRequest {
	r.Request = r.Request.WithMethod(method)
	return r
}

// WithRequestTarget returns a copy with an explicit request-target
func (r ServerRequest) WithRequestTarget(target string) ServerRequest {
	r.Request = r.Request.WithRequestTarget(target)
	return r
}

// WithURI returns a copy with the URI replaced; see Request.WithURI
func (r ServerRequest) WithURI(u uri.URI, preserveHost bool) ServerRequest {
	r.Request = r.Request.WithURI(u, preserveHost)
	return r
}

// WithProtocolVersion returns a copy with the protocol version replaced
func (r ServerRequest) WithProtocolVersion(version string) ServerRequest {
	r.Request = r.Request.WithProtocolVersion(version)
	return r
}

// WithHeader returns a copy with all values for name replaced
func (r ServerRequest) WithHeader(name string, values ...string) ServerRequest {
	r.Request = r.Request.WithHeader(name, values...)
	return r
}

// WithAddedHeader returns a copy with values appended to name
func (r ServerRequest) WithAddedHeader(name string, values ...string) ServerRequest {
	r.Request = r.Request.WithAddedHeader(name, values...)
	return r
}

// WithoutHeader returns a copy without name
func (r ServerRequest) WithoutHeader(name string) ServerRequest {
	r.Request = r.Request.WithoutHeader(name)
	return r
}

// WithBody returns a copy using body. The previous body is not closed.
func (r ServerRequest) WithBody(body *stream.Stream) ServerRequest {
	r.Request = r.Request.WithBody(body)
	return r
}

func cloneOrEmpty[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}

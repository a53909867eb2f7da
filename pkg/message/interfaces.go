package message

import (
	"github.com/WhileEndless/go-httpmessage/pkg/headers"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

// MessageLike is the read side shared by every message
type MessageLike interface {
	ProtocolVersion() string
	Headers() map[string][]string
	HeaderFields() []headers.Field
	HasHeader(name string) bool
	Header(name string) []string
	HeaderLine(name string) string
	Body() *stream.Stream
}

// RequestLike is the read side of Request and ServerRequest
type RequestLike interface {
	MessageLike
	Method() string
	RequestTarget() string
	URI() uri.URI
}

// ServerRequestLike is the read side of ServerRequest
type ServerRequestLike interface {
	RequestLike
	ServerParams() map[string]string
	CookieParams() map[string]string
	QueryParams() map[string][]string
	UploadedFiles() map[string]UploadedFile
	ParsedBody() any
	Attributes() map[string]any
	Attribute(name string) (any, bool)
}

// ResponseLike is the read side of Response
type ResponseLike interface {
	MessageLike
	StatusCode() int
	ReasonPhrase() string
}

var (
	_ RequestLike       = Request{}
	_ ServerRequestLike = ServerRequest{}
	_ ResponseLike      = Response{}
)

package message

import (
	"github.com/goccy/go-json"

	"github.com/WhileEndless/go-httpmessage/pkg/cookies"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
)

// Response is an HTTP response
type Response struct {
	message
	status int
	reason string
}

// NewResponse creates a response with status and the standard reason
// phrase for it ("" for unregistered codes)
func NewResponse(status int, opts ...Option) Response {
	return Response{
		message: newMessage(opts),
		status:  status,
		reason:  StatusText(status),
	}
}

// JSON creates a response with v encoded as the body and
// Content-Type: application/json
func JSON(status int, v any, opts ...Option) (Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{}, err
	}
	opts = append(opts, Body(stream.FromBytes(data)))
	return NewResponse(status, opts...).WithHeader("Content-Type", "application/json"), nil
}

// StatusCode returns the status code
func (r Response) StatusCode() int {
	return r.status
}

// ReasonPhrase returns the reason phrase
func (r Response) ReasonPhrase() string {
	return r.reason
}

// WithStatus returns a copy with the status replaced. An empty reason
// selects the standard phrase for code.
func (r Response) WithStatus(code int, reason string) Response {
	r.status = code
	if reason == "" {
		reason = StatusText(code)
	}
	r.reason = reason
	return r
}

// WithCookie returns a copy with a Set-Cookie header appended for c
func (r Response) WithCookie(c cookies.SetCookie) Response {
	return r.WithAddedHeader("Set-Cookie", c.String())
}

// Cookies parses every Set-Cookie header
func (r Response) Cookies() []cookies.SetCookie {
	values := r.Header("Set-Cookie")
	out := make([]cookies.SetCookie, 0, len(values))
	for _, v := range values {
		out = append(out, cookies.ParseSetCookie(v))
	}
	return out
}

// IsSuccess reports a 2xx status
func (r Response) IsSuccess() bool {
	return r.status >= 200 && r.status < 300
}

// IsRedirect reports a 3xx status
func (r Response) IsRedirect() bool {
	return r.status >= 300 && r.status < 400
}

// IsClientError reports a 4xx status
func (r Response) IsClientError() bool {
	return r.status >= 400 && r.status < 500
}

// IsServerError reports a 5xx status
func (r Response) IsServerError() bool {
	return r.status >= 500 && r.status < 600
}

// WithProtocolVersion returns a copy with the protocol version replaced
func (r Response) WithProtocolVersion(version string) Response {
	r.message = r.withProtocolVersion(version)
	return r
}

// WithHeader returns a copy with all values for name replaced
func (r Response) WithHeader(name string, values ...string) Response {
	r.message = r.withHeader(name, values)
	return r
}

// WithAddedHeader returns a copy with values appended to name
func (r Response) WithAddedHeader(name string, values ...string) Response {
	r.message = r.withAddedHeader(name, values)
	return r
}

// WithoutHeader returns a copy without name
func (r Response) WithoutHeader(name string) Response {
	r.message = r.withoutHeader(name)
	return r
}

// WithBody returns a copy using body. The previous body is not closed.
func (r Response) WithBody(body *stream.Stream) Response {
	r.message = r.withBody(body)
	return r
}

package wire

import (
	"bytes"
	"net"
	"strconv"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/compression"
	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/headers"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

// ParseOptions contains options for parsing HTTP messages
type ParseOptions struct {
	// Decompress decodes a body sent with a supported Content-Encoding and
	// removes the header. Unsupported or undecodable bodies are an error.
	Decompress bool

	// Scheme is used for the request URI when the target is not absolute
	// (default: "http")
	Scheme string
}

// ParseRequest parses an HTTP/1.x request with default options
func ParseRequest(data []byte) (message.ServerRequest, error) {
	return ParseRequestWithOptions(data, ParseOptions{})
}

// ParseRequestWithOptions parses an HTTP/1.x request into a ServerRequest.
// The URI is rebuilt from the request-target and the Host header; cookie
// and query parameters are filled from the Cookie header and the query.
func ParseRequestWithOptions(data []byte, opts ParseOptions) (message.ServerRequest, error) {
	startLine, h, body, err := split(data, "wire.ParseRequest")
	if err != nil {
		return message.ServerRequest{}, err
	}

	parts := strings.Split(startLine, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return message.ServerRequest{}, errors.Malformed("invalid request line: "+startLine, "wire.ParseRequest")
	}
	method, target := parts[0], parts[1]
	version, err := parseVersion(parts[2], "wire.ParseRequest")
	if err != nil {
		return message.ServerRequest{}, err
	}

	u, err := requestURI(target, h.First("Host"), opts.Scheme)
	if err != nil {
		return message.ServerRequest{}, err
	}

	body, err = decodeBody(h, body, opts, "wire.ParseRequest")
	if err != nil {
		return message.ServerRequest{}, err
	}

	req := message.NewRequest(method, u,
		message.Protocol(version),
		message.Headers(h),
		message.Body(stream.FromBytes(body)),
	)
	if target != u.RequestTarget() {
		req = req.WithRequestTarget(target)
	}

	return message.ServerRequestFromRequest(req, nil), nil
}

// ParseResponse parses an HTTP/1.x response with default options
func ParseResponse(data []byte) (message.Response, error) {
	return ParseResponseWithOptions(data, ParseOptions{})
}

// ParseResponseWithOptions parses an HTTP/1.x response. An empty reason
// phrase on the wire is replaced with the standard one for the code.
func ParseResponseWithOptions(data []byte, opts ParseOptions) (message.Response, error) {
	startLine, h, body, err := split(data, "wire.ParseResponse")
	if err != nil {
		return message.Response{}, err
	}

	// Version StatusCode [Reason Phrase]
	parts := strings.SplitN(startLine, " ", 3)
	if len(parts) < 2 {
		return message.Response{}, errors.Malformed("invalid status line: "+startLine, "wire.ParseResponse")
	}
	version, err := parseVersion(parts[0], "wire.ParseResponse")
	if err != nil {
		return message.Response{}, err
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 3 || code < 100 {
		return message.Response{}, errors.Malformed("invalid status code: "+parts[1], "wire.ParseResponse")
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	body, err = decodeBody(h, body, opts, "wire.ParseResponse")
	if err != nil {
		return message.Response{}, err
	}

	resp := message.NewResponse(code,
		message.Protocol(version),
		message.Headers(h),
		message.Body(stream.FromBytes(body)),
	)
	return resp.WithStatus(code, reason), nil
}

// split separates the start line, header block and body. The body is cut
// to Content-Length when the header is present.
func split(data []byte, context string) (string, *headers.Headers, []byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, nil, errors.Malformed("empty message", context)
	}

	lineEnd := bytes.IndexByte(data, '\n')
	if lineEnd < 0 {
		return "", nil, nil, errors.Malformed("no header end found", context)
	}
	startLine := strings.TrimSuffix(string(data[:lineEnd]), "\r")
	rest := data[lineEnd+1:]

	headerEnd, bodyStart := findHeaderEnd(rest)
	if headerEnd < 0 {
		return "", nil, nil, errors.Malformed("no header end found", context)
	}

	h, err := headers.Parse(rest[:headerEnd])
	if err != nil {
		return "", nil, nil, err
	}

	if te := h.Line("Transfer-Encoding"); te != "" && !strings.EqualFold(strings.TrimSpace(te), "identity") {
		return "", nil, nil, errors.Malformed("unsupported transfer coding: "+te, context)
	}

	body := rest[bodyStart:]
	if cl := h.First("Content-Length"); cl != "" {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return "", nil, nil, errors.Malformed("invalid Content-Length: "+cl, context)
		}
		if n > len(body) {
			return "", nil, nil, errors.Malformed("body shorter than Content-Length", context)
		}
		body = body[:n]
	}

	out := make([]byte, len(body))
	copy(out, body)
	return startLine, h, out, nil
}

// findHeaderEnd returns the end of the header block and the start of the
// body in data, which begins right after the start line. A message with no
// headers has the empty line first.
func findHeaderEnd(data []byte) (int, int) {
	if bytes.HasPrefix(data, []byte("\r\n")) {
		return 0, 2
	}
	if bytes.HasPrefix(data, []byte("\n")) {
		return 0, 1
	}
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		if j := bytes.Index(data, []byte("\n\n")); j >= 0 && j < i {
			return j + 1, j + 2
		}
		return i + 2, i + 4
	}
	if j := bytes.Index(data, []byte("\n\n")); j >= 0 {
		return j + 1, j + 2
	}
	// Headers run to the end of the input with no body
	if bytes.HasSuffix(data, []byte("\n")) || len(data) == 0 {
		return len(data), len(data)
	}
	return -1, -1
}

func parseVersion(s, context string) (string, error) {
	if !strings.HasPrefix(s, "HTTP/") || len(s) == len("HTTP/") {
		return "", errors.Malformed("invalid HTTP version: "+s, context)
	}
	return strings.TrimPrefix(s, "HTTP/"), nil
}

func requestURI(target, host, scheme string) (uri.URI, error) {
	if target == "*" {
		target = ""
	}
	u, err := uri.Parse(target)
	if err != nil {
		return uri.URI{}, err
	}
	if u.Host() != "" || host == "" {
		return u, nil
	}

	if scheme == "" {
		scheme = "http"
	}
	u = u.WithScheme(scheme)

	name, port, err := net.SplitHostPort(host)
	if err != nil {
		return u.WithHost(host), nil
	}
	u = u.WithHost(name)
	if p, err := strconv.Atoi(port); err == nil {
		if withPort, err := u.WithPort(p); err == nil {
			u = withPort
		}
	}
	return u, nil
}

func decodeBody(h *headers.Headers, body []byte, opts ParseOptions, context string) ([]byte, error) {
	if !opts.Decompress {
		return body, nil
	}
	encoding := h.Line("Content-Encoding")
	if encoding == "" {
		return body, nil
	}

	coding, ok := compression.ParseCoding(encoding)
	if !ok {
		return nil, errors.Malformed("unsupported content coding: "+encoding, context)
	}
	decoded, err := compression.Decode(body, coding)
	if err != nil {
		return nil, err
	}

	h.Del("Content-Encoding")
	if h.Has("Content-Length") {
		h.Set("Content-Length", strconv.Itoa(len(decoded)))
	}
	return decoded, nil
}

// Package bridge converts between this module's messages and net/http, so
// a middleware pipeline can serve a net/http server and a Request can be
// sent with an http.Client.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/headers"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

// ToServerRequest converts an incoming net/http request. The body is read
// in full. Server parameters follow the CGI names (REMOTE_ADDR,
// REQUEST_METHOD, ...). A form-encoded body becomes the parsed body as
// map[string][]string.
func ToServerRequest(r *http.Request) (message.ServerRequest, error) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	target := r.RequestURI
	if target == "" {
		target = r.URL.RequestURI()
	}

	raw := r.URL.String()
	if !r.URL.IsAbs() {
		raw = scheme + "://" + r.Host + r.URL.RequestURI()
	}
	u, err := uri.Parse(raw)
	if err != nil {
		return message.ServerRequest{}, err
	}

	h := headers.New()
	if r.Host != "" {
		h.Set("Host", r.Host)
	}
	for _, name := range sortedNames(r.Header) {
		h.Add(name, r.Header[name]...)
	}

	var body []byte
	if r.Body != nil {
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return message.ServerRequest{}, errors.StreamIO("failed to read request body", "bridge.ToServerRequest", err)
		}
	}

	version := protocolVersion(r.ProtoMajor, r.ProtoMinor)
	req := message.NewRequest(r.Method, u,
		message.Protocol(version),
		message.Headers(h),
		message.Body(stream.FromBytes(body)),
	)
	if target != u.RequestTarget() {
		req = req.WithRequestTarget(target)
	}

	params := map[string]string{
		"REMOTE_ADDR":     r.RemoteAddr,
		"REQUEST_METHOD":  r.Method,
		"REQUEST_URI":     target,
		"SERVER_NAME":     u.Host(),
		"SERVER_PROTOCOL": "HTTP/" + version,
	}
	if scheme == "https" {
		params["HTTPS"] = "on"
	}

	sr := message.ServerRequestFromRequest(req, params)
	if isForm(h.First("Content-Type")) && len(body) > 0 {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return message.ServerRequest{}, errors.NewError(errors.ErrorTypeMalformedMessage, "invalid form body", "bridge.ToServerRequest", err)
		}
		sr = sr.WithParsedBody(map[string][]string(form))
	}
	return sr, nil
}

// WriteResponse writes resp to w. net/http always sends the standard
// reason phrase for the status code.
func WriteResponse(w http.ResponseWriter, resp message.ResponseLike) error {
	for _, f := range resp.HeaderFields() {
		for _, v := range f.Values {
			w.Header().Add(f.Name, v)
		}
	}
	w.WriteHeader(resp.StatusCode())

	if _, err := io.WriteString(w, resp.Body().String()); err != nil {
		return errors.StreamIO("failed to write response body", "bridge.WriteResponse", err)
	}
	return nil
}

// ToHTTPRequest converts req to an outgoing net/http request bound to ctx
func ToHTTPRequest(ctx context.Context, req message.RequestLike) (*http.Request, error) {
	body := []byte(req.Body().String())

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), req.URI().String(), reader)
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeInvalidArgument, "failed to create request", "bridge.ToHTTPRequest", err)
	}

	for _, f := range req.HeaderFields() {
		if strings.EqualFold(f.Name, "Host") {
			if len(f.Values) > 0 {
				httpReq.Host = f.Values[0]
			}
			continue
		}
		for _, v := range f.Values {
			httpReq.Header.Add(f.Name, v)
		}
	}
	return httpReq, nil
}

// FromHTTPResponse converts a net/http response. The body is read in full
// and closed.
func FromHTTPResponse(r *http.Response) (message.Response, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return message.Response{}, errors.StreamIO("failed to read response body", "bridge.FromHTTPResponse", err)
	}

	h := headers.New()
	for _, name := range sortedNames(r.Header) {
		h.Add(name, r.Header[name]...)
	}

	reason := strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode))
	reason = strings.TrimSpace(reason)

	resp := message.NewResponse(r.StatusCode,
		message.Protocol(protocolVersion(r.ProtoMajor, r.ProtoMinor)),
		message.Headers(h),
		message.Body(stream.FromBytes(body)),
	)
	return resp.WithStatus(r.StatusCode, reason), nil
}

// protocolVersion renders 1.1 as "1.1" and 2.0 as "2"
func protocolVersion(major, minor int) string {
	if major == 0 {
		return message.DefaultProtocolVersion
	}
	if major >= 2 && minor == 0 {
		return strconv.Itoa(major)
	}
	return fmt.Sprintf("%d.%d", major, minor)
}

func isForm(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/x-www-form-urlencoded")
}

// sortedNames returns the header names in a stable order. net/http does
// not keep the order fields arrived in.
func sortedNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package client sends requests and returns responses. HTTP error statuses
// are returned as responses. Failures to send or receive are reported as
// *NetworkError; a request that would be invalid on the wire is rejected
// before sending.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/http2"

	"github.com/WhileEndless/go-httpmessage/pkg/bridge"
	"github.com/WhileEndless/go-httpmessage/pkg/compression"
	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
	"github.com/WhileEndless/go-httpmessage/pkg/version"
	"github.com/WhileEndless/go-httpmessage/pkg/wire"
)

// Result is a response together with how long each phase took
type Result struct {
	Response message.Response
	Timing   Timing
}

// Client sends requests over HTTP/1.1 or HTTP/2. It is safe for concurrent
// use.
type Client struct {
	opts Options
	http *http.Client
}

// New creates a Client
func New(opts Options) (*Client, error) {
	opts.SetDefaults()

	rt, err := newTransport(opts)
	if err != nil {
		return nil, err
	}

	return &Client{
		opts: opts,
		http: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
			// Redirects are responses like any other
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func newTransport(opts Options) (http.RoundTripper, error) {
	dialer := &net.Dialer{Timeout: opts.ConnTimeout}

	if opts.EnableH2C {
		return &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
			DisableCompression: true,
		}, nil
	}

	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     opts.BuildTLSConfig(),
		TLSHandshakeTimeout: opts.ConnTimeout,
		DisableCompression:  true,
		MaxIdleConns:        100,
	}
	if opts.ForceHTTP1 {
		t.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		return t, nil
	}
	if err := http2.ConfigureTransport(t); err != nil {
		return nil, err
	}
	return t, nil
}

// SendRequest sends req and returns the response
func (c *Client) SendRequest(ctx context.Context, req message.RequestLike) (message.Response, error) {
	result, err := c.Do(ctx, req)
	if err != nil {
		return message.Response{}, err
	}
	return result.Response, nil
}

// Do sends req and returns the response with phase timings
func (c *Client) Do(ctx context.Context, req message.RequestLike) (*Result, error) {
	if v := wire.ValidateRequest(req); !v.Valid {
		return nil, errors.InvalidArgument("invalid request: "+strings.Join(v.Errors, "; "), "client.Do")
	}

	tr := &tracer{}
	httpReq, err := bridge.ToHTTPRequest(tr.withTrace(ctx), req)
	if err != nil {
		return nil, err
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", version.UserAgent())
	}
	if c.opts.Decompress && httpReq.Header.Get("Accept-Encoding") == "" {
		httpReq.Header.Set("Accept-Encoding", acceptEncoding())
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(req, err)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.opts.BodyMemLimit+1))
	httpResp.Body.Close()
	if err != nil {
		return nil, newNetworkError(req, err)
	}
	if int64(len(body)) > c.opts.BodyMemLimit {
		return nil, &NetworkError{Request: req, Reason: ReasonBodyTooLarge}
	}
	httpResp.Body = io.NopCloser(bytes.NewReader(body))

	resp, err := bridge.FromHTTPResponse(httpResp)
	if err != nil {
		return nil, newNetworkError(req, err)
	}
	if c.opts.Decompress {
		if resp, err = decompress(resp); err != nil {
			return nil, err
		}
	}

	return &Result{Response: resp, Timing: tr.finish()}, nil
}

func acceptEncoding() string {
	names := make([]string, 0, len(compression.Supported()))
	for _, c := range compression.Supported() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

// decompress decodes a body sent with a supported Content-Encoding.
// Unknown codings are left as received.
func decompress(resp message.Response) (message.Response, error) {
	encoding := resp.HeaderLine("Content-Encoding")
	if encoding == "" {
		return resp, nil
	}
	coding, ok := compression.ParseCoding(encoding)
	if !ok {
		return resp, nil
	}

	decoded, err := compression.Decode([]byte(resp.Body().String()), coding)
	if err != nil {
		return message.Response{}, err
	}

	resp = resp.WithoutHeader("Content-Encoding").WithBody(stream.FromBytes(decoded))
	if resp.HasHeader("Content-Length") {
		resp = resp.WithHeader("Content-Length", strconv.Itoa(len(decoded)))
	}
	return resp, nil
}

package middleware

import (
	"strconv"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/compression"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/stream"
)

// CompressionConfig configures Compression
type CompressionConfig struct {
	// Level is passed to the encoder (default: compression.DefaultLevel)
	Level int

	// MinSize is the smallest body worth encoding (default: 256 bytes)
	MinSize int

	// Offered lists the codings to negotiate, in preference order
	// (default: compression.Supported())
	Offered []compression.Coding
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Level:   compression.DefaultLevel,
		MinSize: 256,
		Offered: compression.Supported(),
	}
}

// Compression encodes response bodies with the coding negotiated from the
// request's Accept-Encoding header
type Compression struct {
	config CompressionConfig
}

// NewCompression creates a Compression middleware. A zero Level means
// compression.DefaultLevel; other zero fields take their defaults.
func NewCompression(config CompressionConfig) *Compression {
	defaults := DefaultCompressionConfig()
	if config.Level == 0 {
		config.Level = defaults.Level
	}
	if config.MinSize <= 0 {
		config.MinSize = defaults.MinSize
	}
	if len(config.Offered) == 0 {
		config.Offered = defaults.Offered
	}
	return &Compression{config: config}
}

// Process implements Middleware
func (m *Compression) Process(req message.ServerRequest, next Handler) (message.Response, error) {
	resp, err := next.Handle(req)
	if err != nil || !compressible(req, resp) {
		return resp, err
	}

	coding := compression.Negotiate(req.HeaderLine("Accept-Encoding"), m.config.Offered)
	resp = resp.WithAddedHeader("Vary", "Accept-Encoding")
	if coding == compression.Identity {
		return resp, nil
	}

	body := resp.Body().String()
	if len(body) < m.config.MinSize {
		return resp, nil
	}

	encoded, err := compression.Encode([]byte(body), coding, m.config.Level)
	if err != nil {
		return resp, err
	}

	return resp.
		WithHeader("Content-Encoding", coding.String()).
		WithHeader("Content-Length", strconv.Itoa(len(encoded))).
		WithBody(stream.FromBytes(encoded)), nil
}

// compressible reports whether resp may be re-encoded
func compressible(req message.ServerRequest, resp message.Response) bool {
	if req.Method() == "HEAD" {
		return false
	}
	code := resp.StatusCode()
	if code < 200 || code == 204 || code == 304 {
		return false
	}
	if resp.HasHeader("Content-Encoding") {
		return false
	}
	for _, v := range resp.Header("Cache-Control") {
		if strings.Contains(strings.ToLower(v), "no-transform") {
			return false
		}
	}
	return true
}

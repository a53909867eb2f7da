package client

import (
	"crypto/tls"
	"crypto/x509"
	"time"
)

// Options configures a Client
type Options struct {
	// Timeout options
	ConnTimeout time.Duration // Connection timeout (default: 30s)
	Timeout     time.Duration // Whole request timeout (default: 60s)

	// TLS options
	InsecureSkipVerify bool     // Skip TLS certificate verification
	CustomCACerts      [][]byte // Custom CA certificates in PEM format

	// Body options
	BodyMemLimit int64 // Maximum response body size (default: 4MB)

	// Decompress advertises every supported content coding and decodes
	// the response body, removing Content-Encoding. A request that sets
	// its own Accept-Encoding is left alone.
	Decompress bool

	// Protocol options
	ForceHTTP1 bool // Never negotiate HTTP/2
	EnableH2C  bool // Speak HTTP/2 cleartext (prior knowledge) to http:// URIs
}

// SetDefaults sets default values for unspecified options
func (o *Options) SetDefaults() {
	if o.ConnTimeout == 0 {
		o.ConnTimeout = 30 * time.Second
	}

	if o.Timeout == 0 {
		o.Timeout = 60 * time.Second
	}

	if o.BodyMemLimit == 0 {
		o.BodyMemLimit = 4 * 1024 * 1024 // 4MB
	}
}

// BuildTLSConfig builds a TLS configuration from options
func (o *Options) BuildTLSConfig() *tls.Config {
	config := &tls.Config{
		InsecureSkipVerify: o.InsecureSkipVerify,
	}

	// Add custom CA certificates
	if len(o.CustomCACerts) > 0 {
		certPool := x509.NewCertPool()
		for _, cert := range o.CustomCACerts {
			certPool.AppendCertsFromPEM(cert)
		}
		config.RootCAs = certPool
	}

	// Configure ALPN for HTTP/2
	if o.ForceHTTP1 {
		config.NextProtos = []string{"http/1.1"}
	} else {
		config.NextProtos = []string{"h2", "http/1.1"}
	}

	return config
}

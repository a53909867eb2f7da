package client

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"
)

// Timing represents timing information for different phases of the request
type Timing struct {
	DNSLookup    time.Duration // Time spent on DNS resolution
	TCPConnect   time.Duration // Time spent on TCP connection establishment
	TLSHandshake time.Duration // Time spent on TLS handshake (0 for HTTP)
	TTFB         time.Duration // Time to first byte (from sending request to receiving first response byte)
	Total        time.Duration // Total time from start to finish
	Reused       bool          // Connection came from the pool
}

// String returns a human-readable representation of timing information
func (t *Timing) String() string {
	var b strings.Builder
	b.WriteString("Timing:\n")
	if t.DNSLookup > 0 {
		b.WriteString("  DNS Lookup: " + t.DNSLookup.String() + "\n")
	}
	if t.TCPConnect > 0 {
		b.WriteString("  TCP Connect: " + t.TCPConnect.String() + "\n")
	}
	if t.TLSHandshake > 0 {
		b.WriteString("  TLS Handshake: " + t.TLSHandshake.String() + "\n")
	}
	if t.TTFB > 0 {
		b.WriteString("  Time to First Byte: " + t.TTFB.String() + "\n")
	}
	if t.Reused {
		b.WriteString("  Connection: reused\n")
	}
	b.WriteString("  Total: " + t.Total.String())
	return b.String()
}

// tracer fills a Timing from httptrace callbacks, which may arrive on
// other goroutines
type tracer struct {
	mu     sync.Mutex
	timing Timing

	start, dnsStart, connStart, tlsStart, wrote time.Time
}

func (tr *tracer) withTrace(ctx context.Context) context.Context {
	tr.start = time.Now()
	return httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { tr.mark(&tr.dnsStart) },
		DNSDone: func(httptrace.DNSDoneInfo) {
			tr.since(&tr.dnsStart, &tr.timing.DNSLookup)
		},
		ConnectStart: func(string, string) { tr.mark(&tr.connStart) },
		ConnectDone: func(string, string, error) {
			tr.since(&tr.connStart, &tr.timing.TCPConnect)
		},
		TLSHandshakeStart: func() { tr.mark(&tr.tlsStart) },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			tr.since(&tr.tlsStart, &tr.timing.TLSHandshake)
		},
		GotConn: func(info httptrace.GotConnInfo) {
			tr.mu.Lock()
			tr.timing.Reused = info.Reused
			tr.mu.Unlock()
		},
		WroteRequest:         func(httptrace.WroteRequestInfo) { tr.mark(&tr.wrote) },
		GotFirstResponseByte: func() { tr.since(&tr.wrote, &tr.timing.TTFB) },
	})
}

func (tr *tracer) mark(t *time.Time) {
	tr.mu.Lock()
	*t = time.Now()
	tr.mu.Unlock()
}

func (tr *tracer) since(from *time.Time, d *time.Duration) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if !from.IsZero() {
		*d = time.Since(*from)
	}
}

func (tr *tracer) finish() Timing {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.timing.Total = time.Since(tr.start)
	return tr.timing
}

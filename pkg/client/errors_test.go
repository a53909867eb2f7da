package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ReasonTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, ReasonDNS},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}, ReasonConnection},
		{"dial timeout", &net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}, ReasonTimeout},
		{"net timeout", timeoutErr{}, ReasonTimeout},
		{"other", stderrors.New("boom"), ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNetworkError_Message(t *testing.T) {
	base := stderrors.New("connection refused")
	req := message.NewRequest("GET", uri.MustParse("http://blog.example.com/api/posts"))
	err := &NetworkError{Request: req, Reason: ReasonConnection, Err: base}

	msg := err.Error()
	for _, want := range []string{"http://blog.example.com/api/posts", "connection failed", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in %q", want, msg)
		}
	}
	if stderrors.Unwrap(err) != base {
		t.Error("Unwrap should return the cause")
	}
}

func TestTiming_String(t *testing.T) {
	timing := &Timing{
		DNSLookup:  10 * time.Millisecond,
		TCPConnect: 20 * time.Millisecond,
		TTFB:       100 * time.Millisecond,
		Total:      150 * time.Millisecond,
	}

	result := timing.String()
	for _, part := range []string{"DNS Lookup", "TCP Connect", "Time to First Byte", "Total"} {
		if !strings.Contains(result, part) {
			t.Errorf("String() missing %q", part)
		}
	}
	// No TLS handshake for plain HTTP
	if strings.Contains(result, "TLS Handshake") {
		t.Error("String() should omit TLS handshake when it did not happen")
	}
}

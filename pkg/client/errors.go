package client

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// Reason categorizes a NetworkError
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonDNS
	ReasonConnection
	ReasonTLS
	ReasonTimeout
	ReasonBodyTooLarge
)

func (r Reason) String() string {
	switch r {
	case ReasonDNS:
		return "DNS resolution failed"
	case ReasonConnection:
		return "connection failed"
	case ReasonTLS:
		return "TLS handshake failed"
	case ReasonTimeout:
		return "operation timeout"
	case ReasonBodyTooLarge:
		return "response body too large"
	default:
		return "request failed"
	}
}

// NetworkError reports that a request could not be sent or its response
// could not be received. It carries the request that failed. An HTTP error
// status is not a NetworkError; it is returned as a response.
type NetworkError struct {
	Request message.RequestLike
	Reason  Reason
	Err     error
}

func (e *NetworkError) Error() string {
	target := ""
	if e.Request != nil {
		target = " " + e.Request.URI().String()
	}
	if e.Err != nil {
		return fmt.Sprintf("httpmessage: could not reach%s: %s: %v", target, e.Reason, e.Err)
	}
	return fmt.Sprintf("httpmessage: could not reach%s: %s", target, e.Reason)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Kind implements errors.Kinded
func (e *NetworkError) Kind() errors.ErrorType {
	return errors.ErrorTypeNetwork
}

// Is matches errors.ErrNetwork
func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*errors.Error)
	return ok && t.Type == errors.ErrorTypeNetwork
}

// newNetworkError classifies err by its underlying cause
func newNetworkError(req message.RequestLike, err error) *NetworkError {
	return &NetworkError{Request: req, Reason: classify(err), Err: err}
}

func classify(err error) Reason {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case stderrors.As(err, &dnsErr):
		return ReasonDNS
	case stderrors.As(err, &recordErr), stderrors.As(err, &certErr):
		return ReasonTLS
	case stderrors.As(err, &opErr):
		if opErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonConnection
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonUnknown
}

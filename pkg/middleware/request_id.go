package middleware

import (
	"github.com/rs/xid"

	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

const (
	// RequestIDAttribute is the request attribute holding the request ID
	RequestIDAttribute = "request_id"

	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-Id"
)

// RequestID tags each request with an ID. An incoming X-Request-Id is kept
// when TrustHeader is set; otherwise a new xid is generated. The ID is
// stored in the request_id attribute and echoed on the response.
type RequestID struct {
	TrustHeader bool
}

// NewRequestID creates a RequestID middleware
func NewRequestID(trustHeader bool) *RequestID {
	return &RequestID{TrustHeader: trustHeader}
}

// Process implements Middleware
func (m *RequestID) Process(req message.ServerRequest, next Handler) (message.Response, error) {
	id := ""
	if m.TrustHeader {
		id = req.HeaderLine(RequestIDHeader)
	}
	if id == "" {
		id = xid.New().String()
	}

	resp, err := next.Handle(req.WithAttribute(RequestIDAttribute, id))
	if err != nil {
		return resp, err
	}
	return resp.WithHeader(RequestIDHeader, id), nil
}

// RequestIDFrom returns the request ID attribute, or ""
func RequestIDFrom(req message.ServerRequest) string {
	id, _ := req.AttributeOr(RequestIDAttribute, "").(string)
	return id
}

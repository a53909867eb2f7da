// Package wire converts messages to and from their HTTP/1.1 text form.
//
// Bodies are delimited by Content-Length when present and by the end of
// the input otherwise. Chunked transfer coding is not supported.
package wire

import (
	"bytes"
	"strconv"

	"github.com/WhileEndless/go-httpmessage/pkg/headers"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// BuildRequest renders req as "METHOD target HTTP/version", the header
// block and the body. The body is rewound and read in full.
func BuildRequest(req message.RequestLike) []byte {
	var buf bytes.Buffer

	// Request line
	buf.WriteString(req.Method())
	buf.WriteByte(' ')
	buf.WriteString(req.RequestTarget())
	buf.WriteString(" HTTP/")
	buf.WriteString(req.ProtocolVersion())
	buf.WriteString("\r\n")

	writeHeadersAndBody(&buf, req)
	return buf.Bytes()
}

// BuildResponse renders resp as "HTTP/version code reason", the header
// block and the body. The body is rewound and read in full.
func BuildResponse(resp message.ResponseLike) []byte {
	var buf bytes.Buffer

	// Status line
	buf.WriteString("HTTP/")
	buf.WriteString(resp.ProtocolVersion())
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(resp.StatusCode()))
	buf.WriteByte(' ')
	buf.WriteString(resp.ReasonPhrase())
	buf.WriteString("\r\n")

	writeHeadersAndBody(&buf, resp)
	return buf.Bytes()
}

func writeHeadersAndBody(buf *bytes.Buffer, m message.MessageLike) {
	h := headers.New()
	for _, f := range m.HeaderFields() {
		h.Add(f.Name, f.Values...)
	}
	buf.Write(h.Build())
	buf.WriteString("\r\n")
	buf.WriteString(m.Body().String())
}

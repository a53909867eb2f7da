package headers

import (
	"bytes"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// Parse parses a raw header block (lines up to the first empty line).
// Accepts both CRLF and bare LF line endings. Repeated names accumulate
// values in order. A line without a colon or with an empty name is an error.
func Parse(data []byte) (*Headers, error) {
	h := New()

	i := 0
	for i < len(data) {
		lineEnd := bytes.IndexByte(data[i:], '\n')
		var line []byte
		if lineEnd < 0 {
			line = data[i:]
			i = len(data)
		} else {
			line = data[i : i+lineEnd]
			i += lineEnd + 1
		}
		line = bytes.TrimSuffix(line, []byte("\r"))

		// Empty line ends the header section
		if len(bytes.TrimSpace(line)) == 0 {
			break
		}

		// obs-fold: continuation of the previous value
		if (line[0] == ' ' || line[0] == '\t') && len(h.order) > 0 {
			last := h.order[len(h.order)-1]
			vs := h.values[last]
			vs[len(vs)-1] = vs[len(vs)-1] + " " + strings.TrimSpace(string(line))
			continue
		}

		colonPos := bytes.IndexByte(line, ':')
		if colonPos == -1 {
			return nil, errors.Malformed("header line without colon: "+string(line), "headers.Parse")
		}

		name := strings.TrimSpace(string(line[:colonPos]))
		value := strings.TrimSpace(string(line[colonPos+1:]))
		if name == "" || strings.ContainsAny(name, " \t") {
			return nil, errors.Malformed("invalid header name: "+string(line), "headers.Parse")
		}

		h.Add(name, value)
	}

	return h, nil
}

// Build renders the table as one "Name: value\r\n" line per value, in
// order, so Parse yields the same values back.
func (h *Headers) Build() []byte {
	var buf bytes.Buffer

	for _, field := range h.All() {
		for _, v := range field.Values {
			buf.WriteString(field.Name)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteString("\r\n")
		}
	}

	return buf.Bytes()
}

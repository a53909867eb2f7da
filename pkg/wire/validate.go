package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/headers"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// ValidationResult contains validation results
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

func (r *ValidationResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *ValidationResult) fail(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

var standardMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true, "DELETE": true,
	"CONNECT": true, "OPTIONS": true, "TRACE": true, "PATCH": true,
}

// ValidateRequest checks a request for problems that would make its wire
// form invalid (errors) or unusual (warnings)
func ValidateRequest(req message.RequestLike) *ValidationResult {
	result := newValidationResult()

	// Validate HTTP method
	method := req.Method()
	switch {
	case method == "":
		result.fail("HTTP method is empty")
	case strings.ContainsAny(method, " \t\r\n"):
		result.fail("HTTP method contains whitespace: " + strconv.Quote(method))
	case !standardMethods[method]:
		result.warn("Non-standard HTTP method: " + method)
	}

	if strings.ContainsAny(req.RequestTarget(), " \t\r\n") {
		result.fail("Request target contains whitespace: " + strconv.Quote(req.RequestTarget()))
	}

	validateVersion(req.ProtocolVersion(), result)
	validateHeaders(req.HeaderFields(), result)

	bodySize, sized := req.Body().Size()
	validateContentLength(req.HeaderLine("Content-Length"), bodySize, sized, result)

	// Check for body with GET/HEAD methods
	if (method == "GET" || method == "HEAD") && sized && bodySize > 0 {
		result.warn(method + " request with body (non-standard)")
	}

	if req.ProtocolVersion() == "1.1" && req.HeaderLine("Host") == "" {
		result.warn("HTTP/1.1 request without Host header")
	}

	return result
}

// ValidateResponse checks a response the same way
func ValidateResponse(resp message.ResponseLike) *ValidationResult {
	result := newValidationResult()

	// Validate status code
	if resp.StatusCode() < 100 || resp.StatusCode() > 599 {
		result.fail("Invalid HTTP status code: " + strconv.Itoa(resp.StatusCode()))
	}
	if strings.ContainsAny(resp.ReasonPhrase(), "\r\n") {
		result.fail("Reason phrase contains newline characters")
	}

	validateVersion(resp.ProtocolVersion(), result)
	validateHeaders(resp.HeaderFields(), result)

	bodySize, sized := resp.Body().Size()
	validateContentLength(resp.HeaderLine("Content-Length"), bodySize, sized, result)

	code := resp.StatusCode()
	if (code < 200 || code == 204 || code == 304) && sized && bodySize > 0 {
		result.warn(fmt.Sprintf("Status %d must not carry a body", code))
	}

	return result
}

func validateVersion(version string, result *ValidationResult) {
	if version == "" {
		result.warn("HTTP version is empty")
		return
	}
	if _, err := strconv.ParseFloat(version, 64); err != nil {
		result.warn("Invalid HTTP version format: " + version)
	}
}

func validateContentLength(value string, bodySize int64, sized bool, result *ValidationResult) {
	if value == "" {
		return
	}
	length, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || length < 0 {
		result.warn("Invalid Content-Length header: " + value)
		return
	}
	if sized && length != bodySize {
		result.warn(fmt.Sprintf("Content-Length mismatch: header says %d, body is %d bytes", length, bodySize))
	}
}

// validateHeaders validates common header issues
func validateHeaders(fields []headers.Field, result *ValidationResult) {
	for _, field := range fields {
		// Check for empty header name
		if strings.TrimSpace(field.Name) == "" {
			result.fail("Empty header name")
			continue
		}

		// Check for potentially malicious headers
		if strings.ContainsAny(field.Name, "\r\n:") {
			result.fail("Header name contains invalid characters: " + strconv.Quote(field.Name))
		}

		if len(field.Values) > 1 && !strings.EqualFold(field.Name, "Set-Cookie") && singleValued(field.Name) {
			result.warn("Duplicate header: " + field.Name)
		}

		for _, v := range field.Values {
			if strings.ContainsAny(v, "\r\n") {
				result.fail("Header value contains newline characters: " + field.Name)
			} else if v != "" && strings.TrimSpace(v) == "" {
				result.warn("Header with only whitespace value: " + field.Name)
			}
		}
	}
}

// singleValued reports whether name may appear only once
func singleValued(name string) bool {
	switch strings.ToLower(name) {
	case "host", "content-length", "content-type", "authorization", "location":
		return true
	}
	return false
}

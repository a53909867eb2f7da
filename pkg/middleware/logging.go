package middleware

import (
	"strconv"

	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// Logging logs every request before delegating and its status after.
// It never answers on its own.
type Logging struct {
	log logging.Logger
}

// NewLogging creates a Logging middleware writing to l
func NewLogging(l logging.Logger) *Logging {
	return &Logging{log: l}
}

// Process implements Middleware
func (m *Logging) Process(req message.ServerRequest, next Handler) (message.Response, error) {
	uri := req.URI().String()
	m.log.Log(logging.Info, "Request: "+req.Method()+" "+uri, map[string]any{
		"method": req.Method(),
		"uri":    uri,
	})

	resp, err := next.Handle(req)
	if err != nil {
		m.log.Log(logging.Error, "Request failed: "+err.Error(), map[string]any{
			"method": req.Method(),
			"uri":    uri,
		})
		return resp, err
	}

	m.log.Log(logging.Info, "Response: "+strconv.Itoa(resp.StatusCode()), map[string]any{
		"status": resp.StatusCode(),
	})
	return resp, nil
}

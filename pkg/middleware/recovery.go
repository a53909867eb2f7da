package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// RecoveryConfig configures Recovery
type RecoveryConfig struct {
	// Logger receives the panic value and stack (default: discard)
	Logger logging.Logger

	// StackSize caps the logged stack trace in bytes (default: 4KB)
	StackSize int

	// Handler builds the response for a panic value.
	// If nil, a 500 JSON error response is returned.
	Handler func(req message.ServerRequest, recovered any) (message.Response, error)
}

// DefaultRecoveryConfig returns the default recovery configuration
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Logger:    logging.Nop(),
		StackSize: 4 << 10,
	}
}

// Recovery turns a panic further down the chain into a 500 response and an
// error log entry
type Recovery struct {
	config RecoveryConfig
}

// NewRecovery creates a Recovery middleware. Zero fields take their defaults.
func NewRecovery(config RecoveryConfig) *Recovery {
	defaults := DefaultRecoveryConfig()
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.StackSize <= 0 {
		config.StackSize = defaults.StackSize
	}
	return &Recovery{config: config}
}

// Process implements Middleware
func (m *Recovery) Process(req message.ServerRequest, next Handler) (resp message.Response, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		stack := debug.Stack()
		if len(stack) > m.config.StackSize {
			stack = stack[:m.config.StackSize]
		}
		m.config.Logger.Log(logging.Error, fmt.Sprintf("PANIC: %v", r), map[string]any{
			"method": req.Method(),
			"uri":    req.URI().String(),
			"stack":  string(stack),
		})

		if m.config.Handler != nil {
			resp, err = m.config.Handler(req, r)
			return
		}
		resp, err = message.JSON(500, map[string]string{
			"error": "Internal Server Error",
		})
	}()

	return next.Handle(req)
}

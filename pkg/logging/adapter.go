package logging

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Level is a log severity, from Emergency (highest) to Debug
type Level string

const (
	Emergency Level = "emergency"
	Alert     Level = "alert"
	Critical  Level = "critical"
	Error     Level = "error"
	Warning   Level = "warning"
	Notice    Level = "notice"
	Info      Level = "info"
	Debug     Level = "debug"
)

// Logger is the logging capability consumed by middleware. Implementations
// must not fail the caller: Log has no error result.
type Logger interface {
	Log(level Level, message string, context map[string]any)
}

// Adapter implements Logger on top of a zerolog.Logger. Placeholders of the
// form "{key}" in the message are replaced with context values; the context
// is also attached as structured fields.
type Adapter struct {
	log zerolog.Logger
}

// NewAdapter wraps l
func NewAdapter(l zerolog.Logger) *Adapter {
	return &Adapter{log: l}
}

// Nop returns a Logger that discards everything
func Nop() *Adapter {
	return NewAdapter(zerolog.Nop())
}

// Zerolog returns the wrapped logger
func (a *Adapter) Zerolog() zerolog.Logger {
	return a.log
}

// Log writes message at level
func (a *Adapter) Log(level Level, message string, context map[string]any) {
	event := a.log.WithLevel(zerologLevel(level))
	if level != Info && level != Debug && level != Warning && level != Error {
		event = event.Str("severity", string(level))
	}
	if len(context) > 0 {
		event = event.Fields(context)
	}
	event.Msg(Interpolate(message, context))
}

// zerologLevel maps a severity onto zerolog's smaller level set. The
// emergency, alert and critical levels log at error level; WithLevel never
// exits or panics, whatever the level.
func zerologLevel(level Level) zerolog.Level {
	switch level {
	case Emergency, Alert, Critical, Error:
		return zerolog.ErrorLevel
	case Warning:
		return zerolog.WarnLevel
	case Notice, Info:
		return zerolog.InfoLevel
	case Debug:
		return zerolog.DebugLevel
	default:
		return zerolog.NoLevel
	}
}

// Interpolate replaces "{key}" placeholders in message with context values
func Interpolate(message string, context map[string]any) string {
	if len(context) == 0 || !strings.Contains(message, "{") {
		return message
	}

	pairs := make([]string, 0, len(context)*2)
	for k, v := range context {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

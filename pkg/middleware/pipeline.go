// Package middleware runs server requests through an ordered chain of
// middleware that ends in a fallback handler.
//
// Each middleware may pass a (possibly modified) request on to the next
// handler and transform what comes back, or answer on its own without
// delegating. Nothing stops a middleware from calling next more than once
// or not at all; doing so replays or skips the rest of the chain.
package middleware

import (
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// Handler produces a response for a request. Errors are faults (a broken
// stream, a failed backend); expected outcomes such as a rejected login are
// responses.
type Handler interface {
	Handle(req message.ServerRequest) (message.Response, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(req message.ServerRequest) (message.Response, error)

// Handle calls f(req)
func (f HandlerFunc) Handle(req message.ServerRequest) (message.Response, error) {
	return f(req)
}

// Middleware processes a request, usually by delegating to next
type Middleware interface {
	Process(req message.ServerRequest, next Handler) (message.Response, error)
}

// MiddlewareFunc adapts a function to Middleware
type MiddlewareFunc func(req message.ServerRequest, next Handler) (message.Response, error)

// Process calls f(req, next)
func (f MiddlewareFunc) Process(req message.ServerRequest, next Handler) (message.Response, error) {
	return f(req, next)
}

// Pipeline is an ordered middleware chain ending in a fallback handler.
// Middleware run in the order they were piped. A Pipeline is itself a
// Handler, so pipelines nest.
//
// Handle may be called any number of times and from several goroutines,
// but not concurrently with Pipe.
type Pipeline struct {
	chain    []Middleware
	fallback Handler
}

// New creates an empty pipeline around fallback
func New(fallback Handler) *Pipeline {
	return &Pipeline{fallback: fallback}
}

// Pipe appends m to the chain and returns the pipeline for chaining
func (p *Pipeline) Pipe(m Middleware) *Pipeline {
	p.chain = append(p.chain, m)
	return p
}

// Len returns the number of piped middleware
func (p *Pipeline) Len() int {
	return len(p.chain)
}

// Handle runs req through the chain. With no middleware it is exactly
// fallback.Handle(req).
func (p *Pipeline) Handle(req message.ServerRequest) (message.Response, error) {
	// Slice header copy: later Pipe calls do not affect this run
	c := cursor{chain: p.chain[:len(p.chain):len(p.chain)], fallback: p.fallback}
	return c.Handle(req)
}

// cursor is the "next" handler given to the middleware at index-1. It is a
// value, so every middleware holds its own position and calling next twice
// replays the same tail.
type cursor struct {
	chain    []Middleware
	fallback Handler
	index    int
}

func (c cursor) Handle(req message.ServerRequest) (message.Response, error) {
	if c.index >= len(c.chain) {
		return c.fallback.Handle(req)
	}
	next := cursor{chain: c.chain, fallback: c.fallback, index: c.index + 1}
	return c.chain[c.index].Process(req, next)
}

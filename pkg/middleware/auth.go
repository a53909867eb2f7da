package middleware

import (
	"crypto/subtle"

	"github.com/WhileEndless/go-httpmessage/pkg/factory"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
)

// Auth admits requests whose Authorization header is exactly
// "Bearer <token>" and answers everything else with 401 Unauthorized
// without calling the rest of the chain.
type Auth struct {
	responses factory.ResponseFactory
	expected  []byte
}

// NewAuth creates an Auth middleware for token. An empty token rejects
// every request.
func NewAuth(responses factory.ResponseFactory, token string) *Auth {
	a := &Auth{responses: responses}
	if token != "" {
		a.expected = []byte("Bearer " + token)
	}
	return a
}

// Process implements Middleware
func (a *Auth) Process(req message.ServerRequest, next Handler) (message.Response, error) {
	got := []byte(req.HeaderLine("Authorization"))

	if a.expected == nil || subtle.ConstantTimeCompare(got, a.expected) != 1 {
		return a.responses.CreateResponse(401, "Unauthorized"), nil
	}
	return next.Handle(req)
}

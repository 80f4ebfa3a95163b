// Package model defines shared types for the relay.
package model

import (
	"context"
	"net/http"
)

// Target identifies where a relayed request should go. It is one of
// PathTarget or ExplicitTarget.
type Target interface {
	isTarget()
}

// PathTarget addresses the upstream by the path segments that follow the
// relay prefix, plus the inbound query string kept verbatim.
type PathTarget struct {
	Segments []string
	RawQuery string
}

// ExplicitTarget carries a percent-encoded absolute URL supplied by the caller.
type ExplicitTarget struct {
	Encoded string
}

func (PathTarget) isTarget()     {}
func (ExplicitTarget) isTarget() {}

// ProxyRequest represents a client request to be forwarded upstream.
//
// Body may be nil, a string, a []byte, a json.RawMessage, or any value that
// encodes to JSON.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	Target Target
	Header http.Header
	Body   any
}

// ProxyResponse represents a fully buffered upstream response.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

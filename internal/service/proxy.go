// Package service implements the core relay forwarding logic.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"cubazzar-relay/internal/client"
	"cubazzar-relay/internal/config"
	"cubazzar-relay/internal/headers"
	"cubazzar-relay/internal/metrics"
	"cubazzar-relay/internal/model"
)

const defaultContentType = "application/json"

// ForwardError reports a forward call that produced no upstream response.
type ForwardError struct {
	URL string
	Err error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward to %s: %v", e.URL, e.Err)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// ProxyService handles the forwarding logic for relayed requests.
type ProxyService struct {
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	baseURL *url.URL
}

// NewProxyService creates a ProxyService bound to cfg.Upstream.BaseURL, the
// only origin it will forward to. The metrics parameter may be nil.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*ProxyService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q is not absolute", cfg.Upstream.BaseURL)
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		metrics: m,
		baseURL: u,
	}, nil
}

// BaseURL returns the upstream origin the service forwards to.
func (s *ProxyService) BaseURL() *url.URL {
	u := *s.baseURL
	return &u
}

// Forward sends a ProxyRequest to the upstream and returns its buffered response.
//
// A forbidden explicit target yields ErrForbiddenTarget without any network
// call. A failed forward call yields a *ForwardError. Upstream error statuses
// are returned as ordinary responses.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, err := ResolveTarget(s.baseURL, pr.Target)
	if err != nil {
		if errors.Is(err, ErrForbiddenTarget) && s.metrics != nil {
			s.metrics.ForbiddenTargets.Inc()
		}
		return nil, err
	}

	header := headers.Filter(pr.Header, headers.RequestDenyList)

	var body io.Reader
	if carriesBody(pr.Method) {
		data, err := encodeBody(pr.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		if len(data) > 0 {
			body = bytes.NewReader(data)
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", defaultContentType)
			}
		}
	}

	ctx := pr.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"target", target,
	)

	resp, err := s.client.Send(ctx, pr.Method, target, header, body)
	if err != nil {
		return nil, &ForwardError{URL: target, Err: err}
	}

	resp.Header = headers.Filter(resp.Header, headers.ResponseDenyList)
	return resp, nil
}

// carriesBody reports whether a request body is forwarded for method.
func carriesBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// encodeBody serializes a request body. Raw forms pass through unchanged;
// anything else is encoded as JSON.
func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		return json.Marshal(b)
	}
}

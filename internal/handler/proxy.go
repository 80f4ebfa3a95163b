package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"cubazzar-relay/internal/client"
	"cubazzar-relay/internal/config"
	"cubazzar-relay/internal/model"
	"cubazzar-relay/internal/service"
)

// secretParamPattern matches credential query values in URLs embedded in
// error messages (realtime apikey, signed storage token, auth access_token).
var secretParamPattern = regexp.MustCompile(`(?i)\b(apikey=|access_token=|token=)[^&\s"]+`)

// errorBody is the JSON shape of every error the relay itself produces.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ProxyHandler relays requests to the upstream backend.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
	prefix  string
	param   string
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, cfg *config.Config, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
		prefix:  cfg.Relay.PathPrefix,
		param:   cfg.Relay.ExplicitParam,
	}
}

// HandlePath relays <prefix>/<path>?<query> to <upstream>/<path>?<query>.
func (h *ProxyHandler) HandlePath(c echo.Context) error {
	req := c.Request()
	rest := strings.TrimPrefix(req.URL.EscapedPath(), h.prefix)

	target := model.PathTarget{
		Segments: strings.Split(strings.TrimPrefix(rest, "/"), "/"),
		RawQuery: req.URL.RawQuery,
	}
	return h.relay(c, target, true)
}

// HandleExplicit relays to the percent-encoded absolute URL carried in the
// configured query parameter, provided it points at the upstream.
func (h *ProxyHandler) HandleExplicit(c echo.Context) error {
	target := model.ExplicitTarget{
		Encoded: rawQueryValue(c.Request().URL.RawQuery, h.param),
	}
	return h.relay(c, target, false)
}

func (h *ProxyHandler) relay(c echo.Context, target model.Target, exposeURL bool) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		Target: target,
		Header: req.Header,
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead && req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			// BodyLimit reports oversized bodies as *echo.HTTPError.
			return err
		}
		pr.Body = body
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err, exposeURL)
	}

	dst := c.Response().Header()
	for key, vals := range resp.Header {
		dst[key] = vals
	}
	c.Response().WriteHeader(resp.StatusCode)

	if len(resp.Body) == 0 || req.Method == http.MethodHead {
		return nil
	}
	if _, err := c.Response().Write(resp.Body); err != nil {
		// Status is already sent; the caller gets a truncated body.
		h.logger.Error("writing response body",
			"err", err,
			"path", req.URL.Path,
		)
	}
	return nil
}

func (h *ProxyHandler) mapError(c echo.Context, err error, exposeURL bool) error {
	path := c.Request().URL.Path

	if errors.Is(err, service.ErrForbiddenTarget) {
		h.logger.Warn("forbidden target", "path", path)
		return c.JSON(http.StatusForbidden, errorBody{
			Error:  "forbidden",
			Detail: "invalid target url",
		})
	}

	cause := err
	target := ""
	var fe *service.ForwardError
	if errors.As(err, &fe) {
		cause = fe.Err
		target = redact(fe.URL)
	}
	msg := redact(cause.Error())

	h.logger.Error("proxy error",
		"err", msg,
		"reason", client.Reason(err),
		"url", target,
		"path", path,
	)

	body := errorBody{Error: "proxy_error", Message: msg}
	if exposeURL {
		body.URL = target
	}
	return c.JSON(http.StatusBadGateway, body)
}

// redact masks credential query values in s.
func redact(s string) string {
	return secretParamPattern.ReplaceAllString(s, "${1}[REDACTED]")
}

// rawQueryValue returns the first value for key in rawQuery without decoding
// it, or "" when key is absent.
func rawQueryValue(rawQuery, key string) string {
	for part := range strings.SplitSeq(rawQuery, "&") {
		k, v, _ := strings.Cut(part, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if k == key {
			return v
		}
	}
	return ""
}

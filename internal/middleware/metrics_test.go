package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"cubazzar-relay/internal/metrics"
)

// requestLabels returns the label sets recorded for the requests counter.
func requestLabels(t *testing.T, m *metrics.Metrics) []map[string]string {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var out []map[string]string
	for _, f := range families {
		if f.GetName() != "cubazzar_relay_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{"_value": ""}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if metric.GetCounter().GetValue() == 1 {
				labels["_value"] = "1"
			}
			out = append(out, labels)
		}
	}
	return out
}

func findLabels(sets []map[string]string, prefix string) map[string]string {
	for _, l := range sets {
		if l["path_prefix"] == prefix {
			return l
		}
	}
	return nil
}

func TestMetrics_IncrementsCounter(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/api/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rest/v1/products", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	l := findLabels(requestLabels(t, m), "/api/rest")
	if l == nil {
		t.Fatal("expected cubazzar_relay_http_requests_total with path_prefix=/api/rest")
	}
	if l["_value"] != "1" {
		t.Errorf("counter value != 1")
	}
	if l["status_code"] != "200" || l["method"] != "GET" {
		t.Errorf("labels = %v", l)
	}
}

func TestMetrics_RecordsDuration(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, f := range families {
		if f.GetName() == "cubazzar_relay_http_request_duration_seconds" {
			for _, metric := range f.GetMetric() {
				if metric.GetHistogram().GetSampleCount() > 0 {
					return
				}
			}
		}
	}
	t.Error("expected cubazzar_relay_http_request_duration_seconds with at least one sample")
}

func TestMetrics_HTTPErrorStatus(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(Metrics(m))
	e.POST("/api/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too large")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/storage/v1/object/images/a.png", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	l := findLabels(requestLabels(t, m), "/api/storage")
	if l == nil {
		t.Fatal("expected cubazzar_relay_http_requests_total with path_prefix=/api/storage")
	}
	if l["status_code"] != "413" {
		t.Errorf("status_code = %q, want %q", l["status_code"], "413")
	}
}

func TestMetrics_UnknownMethodNormalized(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(Metrics(m))
	e.Any("/api/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("XYZZY", "/api/functions/v1/notify", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	l := findLabels(requestLabels(t, m), "/api")
	if l == nil {
		t.Fatal("expected cubazzar_relay_http_requests_total with path_prefix=/api")
	}
	if l["method"] != "other" {
		t.Errorf("method = %q, want %q", l["method"], "other")
	}
}

func TestMetrics_RouterNotFound(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(Metrics(m))

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	l := findLabels(requestLabels(t, m), "other")
	if l == nil {
		t.Fatal("expected cubazzar_relay_http_requests_total with path_prefix=other")
	}
	if l["status_code"] != "404" {
		t.Errorf("status_code = %q, want %q", l["status_code"], "404")
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMetricsRegistered(t *testing.T) {
	// Vectors only appear after first observation.
	RequestsTotal.WithLabelValues("GET", "/seed", "2xx").Add(0)
	RequestDuration.WithLabelValues("GET", "/seed").Observe(0)
	AuthFailuresTotal.WithLabelValues("seed").Add(0)
	RegistrationsTotal.WithLabelValues("seed").Add(0)
	LoginsTotal.WithLabelValues("seed").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"todo_http_requests_total":           false,
		"todo_http_request_duration_seconds": false,
		"todo_auth_failures_total":           false,
		"todo_registrations_total":           false,
		"todo_logins_total":                  false,
		"todo_feed_connections_active":       false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/todos/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/todos/:id", "4xx"))
	beforeHist := testutil.CollectAndCount(RequestDuration)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos/"+id, nil))
	}

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/todos/:id", "4xx"))
	if after-before != 2 {
		t.Fatalf("expected counter delta 2, got %v", after-before)
	}
	if testutil.CollectAndCount(RequestDuration) < beforeHist {
		t.Fatalf("histogram series disappeared")
	}
}

func TestMiddlewareUnmatchedRoute(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "unmatched", "4xx"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "unmatched", "4xx"))
	if after-before != 1 {
		t.Fatalf("expected counter delta 1, got %v", after-before)
	}
}

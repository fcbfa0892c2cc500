package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/recipe", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipe", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/recipe", "200")); got != 2 {
		t.Fatalf("requests for /recipe = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched requests = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.Duration); n == 0 {
		t.Fatal("expected latency samples")
	}
}

func TestObserveDecision(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	m.ObserveDecision("authorized")
	m.ObserveDecision("expired")
	m.ObserveDecision("expired")

	if got := testutil.ToFloat64(m.Decisions.WithLabelValues("expired")); got != 2 {
		t.Fatalf("expired = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `recipe_box_auth_decisions_total{outcome="authorized"} 1`) {
		t.Fatalf("metrics output missing decision counter:\n%s", rec.Body.String())
	}
}

func TestNewWithRegistererReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewWithRegisterer(reg, reg)
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	second, err := NewWithRegisterer(reg, reg)
	if err != nil {
		t.Fatalf("second registration failed: %v", err)
	}
	if first.Requests != second.Requests {
		t.Fatal("expected existing requests collector to be reused")
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

func TestMetrics_Recorder(t *testing.T) {
	m := New()

	m.TransitionRecorded("assign", model.ComplaintStatusAssigned)
	m.TransitionRecorded("assign", model.ComplaintStatusAssigned)
	m.TransitionRecorded("complete", model.ComplaintStatusCompleted)
	m.ClassifierResult("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("assign", "assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("complete", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifier.WithLabelValues("error")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TransitionRecorded("create", model.ComplaintStatusSubmitted)
		m.ClassifierResult("ok")
	})
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/complaints/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/complaints/abc", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/complaints/:id", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `complaints_http_requests_total{method="GET",route="/complaints/:id",status="404"} 1`)
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	r := NewPrometheusRecorder()

	r.ObserveRequest(http.MethodPost, "/agent/query", http.StatusOK, 20*time.Millisecond)
	r.ObserveRequest(http.MethodPost, "/agent/query", http.StatusOK, 30*time.Millisecond)
	r.ObserveRequest(http.MethodPost, "/agent/query", http.StatusBadGateway, time.Second)
	r.ObserveQuery(OutcomeOK, "english", 12, 3*time.Second)
	r.ObserveQuery(OutcomeFailed, "indian", 0, time.Second)
	r.IncUpstreamError(UpstreamOllama)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues("POST", "/agent/query", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues("POST", "/agent/query", "502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queriesTotal.WithLabelValues(OutcomeOK, "english")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamErrors.WithLabelValues(UpstreamOllama)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.queryKeywords))
}

func TestPrometheusRecorderHandler(t *testing.T) {
	r := NewPrometheusRecorder()
	r.IncUpstreamError(UpstreamNews)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `searchagent_upstream_errors_total{upstream="news"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRequest("GET", "/", 200, time.Millisecond)
	r.ObserveQuery(OutcomeOK, "english", 1, time.Millisecond)
	r.IncUpstreamError(UpstreamStore)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

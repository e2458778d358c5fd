package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScan(t *testing.T) {
	c := New()
	report := bias.MustDefault().Scan("The man left. The woman stayed. They always win.")

	c.ObserveScan("upload", report, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.scansTotal.WithLabelValues("upload", "HIGH")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.findingsTotal.WithLabelValues("Gender")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.findingsTotal.WithLabelValues("Absolute")))
}

func TestObserveCacheAndRequests(t *testing.T) {
	c := New()
	c.ObserveCache(true)
	c.ObserveCache(false)
	c.ObserveCache(false)
	c.ObserveRequest("/api/v1/scan", http.StatusOK)
	c.ObserveSweep(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/api/v1/scan", "200")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.uploadsRemoved))
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveScan("text", bias.MustDefault().Scan(""), time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bias_auditor_scans_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOnboardingMetrics(reg)

	m.Redemption(ResultSuccess)
	m.Redemption(ResultInvalid)
	m.Redemption(ResultInvalid)
	m.KeyIssued("admin")

	assert.InDelta(t, 1, testutil.ToFloat64(m.redemptions.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.redemptions.WithLabelValues(ResultInvalid)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.keysIssued.WithLabelValues("admin")), 0)
}

func TestJobMetricsPurged(t *testing.T) {
	reg := prometheus.NewRegistry()
	j := NewJobMetrics(reg)

	j.ObserveDuration("purge", 20*time.Millisecond)
	j.IncSuccess("purge")
	j.AddPurged("verification_code", 3)
	j.AddPurged("verification_code", 0)

	assert.InDelta(t, 1, testutil.ToFloat64(j.success.WithLabelValues("purge")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(j.purged.WithLabelValues("verification_code")), 0)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var o *OnboardingMetrics
	var b *BookingMetrics
	var h *HTTPMetrics
	var j *JobMetrics

	assert.NotPanics(t, func() {
		o.CodeSent(ResultSuccess)
		b.Booking(ResultFailure)
		h.Observe("/api", http.MethodGet, http.StatusOK, time.Millisecond)
		j.IncFailure("purge")
	})

	unregistered := NewBookingMetrics(nil)
	assert.NotPanics(t, func() { unregistered.Booking(ResultSuccess) })
}

func TestRegistryHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.Bookings.Booking(ResultSuccess)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "barbermaster_appointment_bookings_total")
}

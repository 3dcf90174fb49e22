// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barbermaster"

// Registry groups every collector the API exposes on /metrics.
type Registry struct {
	reg        *prometheus.Registry
	HTTP       *HTTPMetrics
	Onboarding *OnboardingMetrics
	Bookings   *BookingMetrics
	Jobs       *JobMetrics
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:        reg,
		HTTP:       NewHTTPMetrics(reg),
		Onboarding: NewOnboardingMetrics(reg),
		Bookings:   NewBookingMetrics(reg),
		Jobs:       NewJobMetrics(reg),
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// AngelaMos | 2026
// domain.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultInvalid = "invalid"
)

// OnboardingMetrics counts transitions of the tenant onboarding flow.
type OnboardingMetrics struct {
	codesSent     *prometheus.CounterVec
	registrations *prometheus.CounterVec
	keysIssued    *prometheus.CounterVec
	redemptions   *prometheus.CounterVec
}

func NewOnboardingMetrics(reg prometheus.Registerer) *OnboardingMetrics {
	if reg == nil {
		return &OnboardingMetrics{}
	}

	codesSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_codes_sent_total",
		Help:      "Verification codes requested, by outcome.",
	}, []string{"result"})
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Tenant registrations, by outcome.",
	}, []string{"result"})
	keysIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "license_keys_issued_total",
		Help:      "License keys generated, by issuing flow.",
	}, []string{"flow"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "license_redemptions_total",
		Help:      "License redemption attempts, by outcome.",
	}, []string{"result"})

	reg.MustRegister(codesSent, registrations, keysIssued, redemptions)

	return &OnboardingMetrics{
		codesSent:     codesSent,
		registrations: registrations,
		keysIssued:    keysIssued,
		redemptions:   redemptions,
	}
}

func (m *OnboardingMetrics) CodeSent(result string) {
	if m == nil || m.codesSent == nil {
		return
	}
	m.codesSent.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *OnboardingMetrics) Registration(result string) {
	if m == nil || m.registrations == nil {
		return
	}
	m.registrations.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *OnboardingMetrics) KeyIssued(flow string) {
	if m == nil || m.keysIssued == nil {
		return
	}
	m.keysIssued.WithLabelValues(normalizeLabel(flow)).Inc()
}

func (m *OnboardingMetrics) Redemption(result string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(normalizeLabel(result)).Inc()
}

type BookingMetrics struct {
	bookings *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}

	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointment_bookings_total",
		Help:      "Booking attempts, by outcome.",
	}, []string{"result"})
	reg.MustRegister(bookings)

	return &BookingMetrics{bookings: bookings}
}

func (m *BookingMetrics) Booking(result string) {
	if m == nil || m.bookings == nil {
		return
	}
	m.bookings.WithLabelValues(normalizeLabel(result)).Inc()
}

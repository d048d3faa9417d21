package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "emairie"

var (
	CivilRequestsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "civil_requests_submitted_total",
		Help:      "The total number of civil-registry requests submitted",
	}, []string{"variant"})

	CivilRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "civil_request_transitions_total",
		Help:      "Agent status transitions on civil-registry requests",
	}, []string{"action", "outcome"})

	AppointmentsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_booked_total",
		Help:      "The total number of confirmed appointment bookings",
	})

	BookingsRefused = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointment_bookings_refused_total",
		Help:      "Appointment bookings refused, by reason",
	}, []string{"reason"})

	ComplaintsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "complaints_submitted_total",
		Help:      "The total number of citizen complaints submitted",
	})

	NewsletterSubscriptions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "newsletter_subscriptions_total",
		Help:      "The total number of newsletter subscriptions and reactivations",
	})

	SecurityAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "security_alerts_total",
		Help:      "Failed-login alerts raised by the security monitor",
	})

	RequestsThrottled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_throttled_total",
		Help:      "Requests refused by a rate limiter, by limiter",
	}, []string{"limiter"})

	CaptchaFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captcha_failures_total",
		Help:      "Public form submissions refused by the Turnstile check",
	})

	UnknownTenantHosts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unknown_tenant_hosts_total",
		Help:      "Requests whose host did not resolve to an active mairie",
	})
)

// Outcome labels for transition counters
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

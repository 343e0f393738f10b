package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the portal's business counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RequestsSubmitted  *prometheus.CounterVec
	RequestTransitions *prometheus.CounterVec
	Donations          prometheus.Counter
	DonationAmount     prometheus.Counter
	LoginFailures      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "welfare_requests_submitted_total",
			Help: "Welfare requests submitted, by request type.",
		}, []string{"type"}),
		RequestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "welfare_request_transitions_total",
			Help: "Admin transitions applied, by resulting status.",
		}, []string{"status"}),
		Donations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "welfare_donations_total",
			Help: "Pledges recorded.",
		}),
		DonationAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "welfare_donation_amount_total",
			Help: "Sum of pledged amounts.",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "welfare_login_failures_total",
			Help: "Rejected login attempts.",
		}),
	}
	reg.MustRegister(m.RequestsSubmitted, m.RequestTransitions, m.Donations, m.DonationAmount, m.LoginFailures)
	return m
}

func (m *Metrics) RequestSubmitted(requestType string) {
	if m == nil {
		return
	}
	m.RequestsSubmitted.WithLabelValues(requestType).Inc()
}

func (m *Metrics) RequestTransitioned(status string) {
	if m == nil {
		return
	}
	m.RequestTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) DonationPledged(amount float64) {
	if m == nil {
		return
	}
	m.Donations.Inc()
	m.DonationAmount.Add(amount)
}

func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}

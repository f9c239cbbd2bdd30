package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead intake flow.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sendsTotal       *prometheus.CounterVec
	sendLatency      *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Name:      "submissions_total",
			Help:      "Lead submissions by outcome",
		}, []string{"outcome"}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Name:      "email_sends_total",
			Help:      "Outbound email sends by message kind and status",
		}, []string{"kind", "status"}),
		sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadintake",
			Name:      "email_send_seconds",
			Help:      "Latency of outbound email provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sendsTotal, m.sendLatency)
	return m
}

// ObserveSubmission counts one intake request by outcome label
// (accepted, spam, invalid_email, missing_details, misconfigured, failed).
func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSend records one provider call for kind (owner or acknowledgment).
func (m *LeadMetrics) ObserveSend(kind string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.sendsTotal.WithLabelValues(kind, status).Inc()
	m.sendLatency.WithLabelValues(kind).Observe(seconds)
}

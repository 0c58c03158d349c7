package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead submission flow.
type LeadMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	appendLatency      *prometheus.HistogramVec
	provisionsTotal    *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Total lead submissions by outcome",
		}, []string{"outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total notification attempts by method and status",
		}, []string{"method", "status"}),
		appendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadrelay",
			Subsystem: "sheets",
			Name:      "append_latency_seconds",
			Help:      "Latency of Google Sheets append calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		provisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "sheets",
			Name:      "provisions_total",
			Help:      "Spreadsheet provisioning resolutions by source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.notificationsTotal, m.appendLatency, m.provisionsTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveNotification(method, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(method, status).Inc()
}

func (m *LeadMetrics) ObserveAppendLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.appendLatency.WithLabelValues(status).Observe(seconds)
}

func (m *LeadMetrics) ObserveProvision(source string) {
	if m == nil {
		return
	}
	m.provisionsTotal.WithLabelValues(source).Inc()
}

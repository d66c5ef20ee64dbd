package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// FormMetrics exposes counters/histograms for the lead form.
type FormMetrics struct {
	submissionsTotal *prometheus.CounterVec
	fieldErrorsTotal *prometheus.CounterVec
	storeTotal       *prometheus.CounterVec
	submitLatency    prometheus.Histogram
	conversionsTotal *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Form submit attempts by outcome",
		}, []string{"outcome"}),
		fieldErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "field_errors_total",
			Help:      "Inline validation errors by field",
		}, []string{"field"}),
		storeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "storage",
			Name:      "writes_total",
			Help:      "Lead persistence attempts by status",
		}, []string{"status"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "submit_duration_seconds",
			Help:      "Time from submit to success or error",
			Buckets:   prometheus.DefBuckets,
		}),
		conversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "tracking",
			Name:      "conversions_total",
			Help:      "Conversion events emitted by sink and status",
		}, []string{"sink", "status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadform",
			Subsystem: "ws",
			Name:      "active_sessions",
			Help:      "Open form sessions",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.fieldErrorsTotal, m.storeTotal, m.submitLatency, m.conversionsTotal, m.activeSessions)
	return m
}

func (m *FormMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeInvalid {
		m.submitLatency.Observe(seconds)
	}
}

func (m *FormMetrics) ObserveFieldError(field string) {
	if m == nil {
		return
	}
	m.fieldErrorsTotal.WithLabelValues(field).Inc()
}

func (m *FormMetrics) ObserveStore(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.storeTotal.WithLabelValues(status).Inc()
}

func (m *FormMetrics) ObserveConversion(sink string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.conversionsTotal.WithLabelValues(sink, status).Inc()
}

func (m *FormMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *FormMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// StudioMetrics exposes counters for the appointment lifecycle and imports.
// A nil *StudioMetrics records nothing.
type StudioMetrics struct {
	appointmentsTotal *prometheus.CounterVec
	importRowsTotal   *prometheus.CounterVec
	importDuration    prometheus.Histogram
}

func NewStudioMetrics(reg prometheus.Registerer) *StudioMetrics {
	m := &StudioMetrics{
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "appointments_total",
			Help:      "Appointment lifecycle actions by outcome",
		}, []string{"action", "outcome"}),
		importRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "import_rows_total",
			Help:      "Spreadsheet rows processed by section and outcome",
		}, []string{"section", "outcome"}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "studio",
			Name:      "import_duration_seconds",
			Help:      "Wall time of complete import runs",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsTotal, m.importRowsTotal, m.importDuration)
	return m
}

// ObserveAppointment counts one lifecycle action; err decides the outcome label.
func (m *StudioMetrics) ObserveAppointment(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.appointmentsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *StudioMetrics) ObserveImportRow(section, outcome string) {
	if m == nil {
		return
	}
	m.importRowsTotal.WithLabelValues(section, outcome).Inc()
}

func (m *StudioMetrics) ObserveImportDuration(seconds float64) {
	if m == nil {
		return
	}
	m.importDuration.Observe(seconds)
}

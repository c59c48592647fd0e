package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStudioMetricsCounts(t *testing.T) {
	m := NewStudioMetrics(prometheus.NewRegistry())

	m.ObserveAppointment("create", nil)
	m.ObserveAppointment("create", nil)
	m.ObserveAppointment("cancel", errors.New("boom"))
	m.ObserveImportRow("clients", "imported")
	m.ObserveImportDuration(1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.appointmentsTotal.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.appointmentsTotal.WithLabelValues("cancel", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRowsTotal.WithLabelValues("clients", "imported")))
}

func TestStudioMetricsNilSafe(t *testing.T) {
	var m *StudioMetrics
	m.ObserveAppointment("create", nil)
	m.ObserveImportRow("appointments", "failed")
	m.ObserveImportDuration(0.1)
}

package admin

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes recorded by Metrics.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Metrics counts admin operations per view. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
}

// NewMetrics registers the admin collectors with reg. Registering twice
// against the same registry reuses the existing collector.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leapadmin",
		Name:      "operations_total",
		Help:      "Admin operations by view, operation and outcome.",
	}, []string{"view", "operation", "outcome"})

	if err := reg.Register(ops); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		ops = existing
	}
	return &Metrics{operations: ops}, nil
}

func (m *Metrics) observe(view, operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(view, operation, outcome).Inc()
}

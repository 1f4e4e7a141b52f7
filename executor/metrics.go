package executor

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts applied invocations per method and resulting state.
type Metrics struct {
	invocations *prometheus.CounterVec
}

// NewMetrics creates Metrics and registers its collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "banking",
			Subsystem: "executor",
			Name:      "invocations_total",
			Help:      "Number of applied ledger invocations",
		}, []string{"method", "state"}),
	}

	if err := reg.Register(m.invocations); err != nil {
		return nil, fmt.Errorf("register invocation counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) observe(method string, st vmstate.State) {
	if m == nil {
		return
	}

	if _, ok := methods[method]; !ok {
		method = "unknown"
	}

	m.invocations.WithLabelValues(method, st.String()).Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts stock ledger mutations by operation and outcome.
type LedgerMetrics struct {
	mutations *prometheus.CounterVec
	units     *prometheus.CounterVec
	lowStock  prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_mutations_total",
		Help: "Stock ledger mutations by operation and result.",
	}, []string{"op", "result"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_units_total",
		Help: "Units moved by successful stock ledger mutations.",
	}, []string{"op"})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_ledger_low_stock_crossings_total",
		Help: "Mutations that moved a SKU into low stock.",
	})
	reg.MustRegister(mutations, units, lowStock)
	return &LedgerMetrics{mutations: mutations, units: units, lowStock: lowStock}
}

// ObserveMutation records one attempted mutation. qty is only counted on success.
func (m *LedgerMetrics) ObserveMutation(op, result string, qty int) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
	if result == ResultOK && qty > 0 {
		m.units.WithLabelValues(normalizeLabel(op)).Add(float64(qty))
	}
}

func (m *LedgerMetrics) IncLowStock() {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Inc()
}

// ResultOK labels a successful mutation or checkout.
const ResultOK = "ok"

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CirculationMetrics records counters for the lending lifecycle.
type CirculationMetrics struct {
	issued   prometheus.Counter
	returned prometheus.Counter
	fines    prometheus.Counter
}

// NewCirculationMetrics registers the circulation metrics on the provided registerer.
func NewCirculationMetrics(reg prometheus.Registerer) *CirculationMetrics {
	if reg == nil {
		return &CirculationMetrics{}
	}
	issued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loans_issued_total",
		Help: "Copies issued to members.",
	})
	returned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loans_returned_total",
		Help: "Copies returned by members.",
	})
	fines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fines_assessed_total",
		Help: "Total fine amount assessed on returns, in currency units.",
	})
	reg.MustRegister(issued, returned, fines)
	return &CirculationMetrics{
		issued:   issued,
		returned: returned,
		fines:    fines,
	}
}

// IncIssued counts one successful issue.
func (c *CirculationMetrics) IncIssued() {
	if c == nil || c.issued == nil {
		return
	}
	c.issued.Inc()
}

// IncReturned counts one successful return.
func (c *CirculationMetrics) IncReturned() {
	if c == nil || c.returned == nil {
		return
	}
	c.returned.Inc()
}

// AddFine accumulates the assessed fine amount.
func (c *CirculationMetrics) AddFine(amount decimal.Decimal) {
	if c == nil || c.fines == nil {
		return
	}
	value, _ := amount.Float64()
	if value <= 0 {
		return
	}
	c.fines.Add(value)
}

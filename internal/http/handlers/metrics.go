package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
)

var ledgerOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "referral_ledger_operations_total",
		Help: "Ledger operations by name and outcome",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(ledgerOps)
}

func countOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerOps.WithLabelValues(op, outcome).Inc()
}

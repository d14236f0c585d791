package service

import "github.com/prometheus/client_golang/prometheus"

var (
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconcile_total",
			Help: "Reconciliation runs by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	bibAllocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bib_allocations_total",
			Help: "Bibs handed out, recycled or freshly minted",
		},
		[]string{"source"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_created_total",
			Help: "Order creation attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(reconcileTotal, bibAllocations, ordersCreated)
}

package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
)

var notificationFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Confirmations that a channel failed to deliver",
	},
	[]string{"channel"},
)

func init() {
	prometheus.MustRegister(notificationFailures)
}

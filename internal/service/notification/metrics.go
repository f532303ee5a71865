package notification

import "github.com/prometheus/client_golang/prometheus"

var (
	stagedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_staged_total",
			Help: "Notifications stored and added to the schedule queue",
		},
		[]string{"type"},
	)
	failedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notifications that could not be staged, by failing step",
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(stagedTotal, failedTotal)
}

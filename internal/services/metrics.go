package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	checksIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "panopto_checks_issued_total",
		Help: "Checks written to the store and alerted.",
	})

	checksReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "panopto_checks_reaped_total",
		Help: "Uncompleted checks removed after expiry.",
	})

	checksSynced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "panopto_checks_synced_total",
		Help: "Completed checks pushed to the sync transport.",
	})

	alertFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "panopto_alert_failures_total",
		Help: "Alerts that could not be shown after the check was recorded.",
	})

	schedulerTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "panopto_scheduler_ticks_total",
		Help: "Completed scheduler passes.",
	})

	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "panopto_scheduler_tick_duration_seconds",
		Help:    "Duration of one scheduler pass.",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// storeErrors is labelled by the logical operation that failed.
	storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "panopto_store_errors_total",
		Help: "Local store failures by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(checksIssued, checksReaped, checksSynced, alertFailures,
		schedulerTicks, tickDuration, storeErrors)
}

// storeFailed records a storage failure. The caller abandons its operation.
func storeFailed(op string, err error) {
	storeErrors.WithLabelValues(op).Inc()
	log.Error().Err(err).Str("op", op).Msg("store operation failed")
}

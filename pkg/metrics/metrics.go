package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "insightboard"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// AggregationRuns counts worker runs by outcome (completed, aborted).
	AggregationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "aggregation_runs_total", Help: "Number of aggregation runs by outcome."},
		[]string{"outcome"},
	)
	// AggregationUsers counts per-user results inside a run (success, skip_decrypt, skip_fetch).
	AggregationUsers = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "aggregation_users_total", Help: "Per-user aggregation results by outcome."},
		[]string{"outcome"},
	)
	AggregationRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "aggregation_run_duration_seconds", Help: "Wall time of one aggregation run.", Buckets: prometheus.DefBuckets},
	)
	OAuthLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "oauth_logins_total", Help: "OAuth callback completions by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AggregationRuns)
	reg.MustRegister(AggregationUsers)
	reg.MustRegister(AggregationRunDuration)
	reg.MustRegister(OAuthLogins)
}

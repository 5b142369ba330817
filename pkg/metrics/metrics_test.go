package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	AggregationRuns.WithLabelValues("completed").Inc()
	OAuthLogins.WithLabelValues("success").Inc()

	n, err := testutil.GatherAndCount(reg, "insightboard_aggregation_runs_total", "insightboard_oauth_logins_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// registering twice on the same registry is a programming error
	require.Panics(t, func() { RegisterCollectors(reg) })
}

// Package metrics records run and assembly outcomes to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/testmux/testmux/types"
)

const MetricsNamespace = "testmux"

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of orchestrated runs by exit code",
	}, []string{
		"exit_code",
	})

	runDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of orchestrated runs",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
	})

	assembliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "assemblies_total",
		Help:      "Count of completed assembly executions",
	})

	assemblyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "assembly_errors_total",
		Help:      "Count of assemblies that hit a fatal execution error",
	}, []string{
		"assembly",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of executed tests by result",
	}, []string{
		"result",
	})
)

// RecordRun records one settled run.
func RecordRun(exitCode int, elapsed time.Duration) {
	runsTotal.WithLabelValues(strconv.Itoa(exitCode)).Inc()
	runDurationSeconds.Observe(elapsed.Seconds())
}

// RecordAssemblyError records a fatal error isolated to one assembly.
func RecordAssemblyError(assembly string) {
	assemblyErrorsTotal.WithLabelValues(assembly).Inc()
}

// RecordAssembly records one completed assembly's test counts.
func RecordAssembly(summary types.ExecutionSummary) {
	assembliesTotal.Inc()
	testsTotal.WithLabelValues("pass").Add(float64(summary.Passed()))
	testsTotal.WithLabelValues("fail").Add(float64(summary.Failed))
	testsTotal.WithLabelValues("skip").Add(float64(summary.Skipped))
	testsTotal.WithLabelValues("error").Add(float64(summary.Errored))
}

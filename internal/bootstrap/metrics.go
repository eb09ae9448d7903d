// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package bootstrap

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsBootstrap holds Prometheus metrics for bootstrap runs. They are
// registered lazily so library consumers that never call Run pay nothing.
type metricsBootstrap struct {
	once sync.Once

	stepsRun    prometheus.Counter
	stepsFailed prometheus.Counter

	runsTotal  prometheus.Counter
	runsFailed prometheus.Counter

	stepDuration prometheus.Histogram
	runDuration  prometheus.Histogram
}

var bootMetrics metricsBootstrap

func (m *metricsBootstrap) init() {
	m.once.Do(func() {
		m.stepsRun = prometheus.NewCounter(prometheus.CounterOpts{Name: "gisup_bootstrap_steps_total", Help: "Provisioning steps executed"})
		m.stepsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "gisup_bootstrap_steps_failed_total", Help: "Provisioning steps that returned an error"})

		m.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "gisup_bootstrap_runs_total", Help: "Full bootstrap runs started"})
		m.runsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "gisup_bootstrap_runs_failed_total", Help: "Full bootstrap runs aborted by a step failure"})

		// Package installs and pip runs dominate; buckets reach minutes.
		buckets := []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600}
		m.stepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "gisup_bootstrap_step_seconds", Help: "Duration of individual provisioning steps", Buckets: buckets})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "gisup_bootstrap_run_seconds", Help: "Duration of full bootstrap runs", Buckets: buckets})

		prometheus.MustRegister(
			m.stepsRun, m.stepsFailed,
			m.runsTotal, m.runsFailed,
			m.stepDuration, m.runDuration,
		)
	})
}

// record helpers - used by Run for metrics tracking
func recordStep(d time.Duration, err error) {
	bootMetrics.init()
	bootMetrics.stepsRun.Inc()
	if err != nil {
		bootMetrics.stepsFailed.Inc()
	}
	bootMetrics.stepDuration.Observe(d.Seconds())
}

func recordRun(d time.Duration, err error) {
	bootMetrics.init()
	bootMetrics.runsTotal.Inc()
	if err != nil {
		bootMetrics.runsFailed.Inc()
	}
	bootMetrics.runDuration.Observe(d.Seconds())
}

// Package metrics writes the kiosk run summary as a Prometheus textfile for
// node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for ncmirtools_kiosk_last_run_outcome.
const (
	OutcomeTransferred    = "transferred"
	OutcomeAlreadySent    = "already_transferred"
	OutcomeNothingFound   = "nothing_found"
	OutcomeDryRun         = "dryrun"
	OutcomeTransferFailed = "transfer_failed"
	OutcomeConfigError    = "config_error"
	OutcomeLockContention = "lock_contention"
	OutcomeTransportError = "transport_error"
	OutcomeFinderError    = "finder_error"
)

var outcomes = []string{
	OutcomeTransferred,
	OutcomeAlreadySent,
	OutcomeNothingFound,
	OutcomeDryRun,
	OutcomeTransferFailed,
	OutcomeConfigError,
	OutcomeLockContention,
	OutcomeTransportError,
	OutcomeFinderError,
}

// KioskRun summarizes one imagetokiosk invocation.
type KioskRun struct {
	Outcome  string
	Finished time.Time
	Bytes    int64
	Duration time.Duration
	// LastSuccess is the time of the most recent successful transfer, zero
	// when none is known.
	LastSuccess time.Time
}

// WriteKioskTextfile renders run into path, replacing any previous file
// atomically.
func WriteKioskTextfile(path string, run KioskRun) error {
	reg := prometheus.NewRegistry()

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ncmirtools",
		Subsystem: "kiosk",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last imagetokiosk run finished.",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ncmirtools",
		Subsystem: "kiosk",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful transfer.",
	})
	bytes := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ncmirtools",
		Subsystem: "kiosk",
		Name:      "last_transfer_bytes",
		Help:      "Bytes sent by the last run.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ncmirtools",
		Subsystem: "kiosk",
		Name:      "last_transfer_duration_seconds",
		Help:      "Wall clock duration of the last transfer attempt.",
	})
	outcome := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ncmirtools",
		Subsystem: "kiosk",
		Name:      "last_run_outcome",
		Help:      "Set to 1 for the outcome of the last run, 0 otherwise.",
	}, []string{"outcome"})

	reg.MustRegister(lastRun, lastSuccess, bytes, duration, outcome)

	finished := run.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	lastRun.Set(float64(finished.Unix()))
	if !run.LastSuccess.IsZero() {
		lastSuccess.Set(float64(run.LastSuccess.Unix()))
	}
	bytes.Set(float64(run.Bytes))
	duration.Set(run.Duration.Seconds())
	for _, name := range outcomes {
		value := 0.0
		if name == run.Outcome {
			value = 1
		}
		outcome.WithLabelValues(name).Set(value)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

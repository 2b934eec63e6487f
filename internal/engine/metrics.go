package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by Run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	tiles    *prometheus.CounterVec
	failures *prometheus.CounterVec
	stage    *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. With a nil
// registerer the collectors work but are not exported.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rastertools",
			Subsystem: "engine",
			Name:      "tiles_written_total",
			Help:      "Work items written to an output raster.",
		}, []string{"unit"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rastertools",
			Subsystem: "engine",
			Name:      "tile_failures_total",
			Help:      "Work items that failed, by stage.",
		}, []string{"unit", "stage"}),
		stage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rastertools",
			Subsystem: "engine",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per work item in each stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rastertools",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Completed runs, by outcome.",
		}, []string{"unit", "outcome"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.tiles, m.failures, m.stage, m.runs} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(s State, d time.Duration) {
	if m == nil {
		return
	}
	m.stage.WithLabelValues(s.String()).Observe(d.Seconds())
}

func (m *Metrics) written(unit string) {
	if m == nil {
		return
	}
	m.tiles.WithLabelValues(unit).Inc()
}

func (m *Metrics) failed(unit string, s State) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(unit, s.String()).Inc()
}

func (m *Metrics) finished(unit string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runs.WithLabelValues(unit, outcome).Inc()
}

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Stage durations of a single pipeline run, labelled by task and stage.
	dur *prometheus.HistogramVec
	// Realignment failures per split.
	fai *prometheus.CounterVec
	// Prediction rows realigned per split.
	row *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		dur: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relboost_pipeline_stage_duration_seconds",
			Help:    "Time taken by a single pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"task", "stage"}),
		fai: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "relboost_realign_failures_total",
			Help: "Total number of failed prediction realignments.",
		}, []string{"task", "split"}),
		row: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "relboost_realign_rows_total",
			Help: "Total number of prediction rows realigned onto label rows.",
		}, []string{"task", "split"}),
	}
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstat_questions_total",
			Help: "Total number of natural-language questions, by compiled intent.",
		},
		[]string{"source", "intent"},
	)
	questionsUnparsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstat_questions_unparsed_total",
			Help: "Total number of questions the compiler could not recognize.",
		},
		[]string{"source"},
	)
	answerLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstat_answer_latency_seconds",
			Help:    "End-to-end question answering latency, compile plus query.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"source"},
	)
	answerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstat_answer_failures_total",
			Help: "Total number of answers that failed at the query stage.",
		},
		[]string{"source"},
	)
	datasetVideosLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidstat_dataset_videos_loaded",
			Help: "Number of videos inserted by the most recent dataset load.",
		},
	)
	datasetSnapshotsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidstat_dataset_snapshots_loaded",
			Help: "Number of snapshots inserted by the most recent dataset load.",
		},
	)
	datasetLoadDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidstat_dataset_load_duration_seconds",
			Help:    "Dataset load duration in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		questionsUnparsedTotal,
		answerLatencySeconds,
		answerFailuresTotal,
		datasetVideosLoaded,
		datasetSnapshotsLoaded,
		datasetLoadDurationSeconds,
	)
}

func ObserveQuestion(source, intent string, elapsed time.Duration) {
	questionsTotal.WithLabelValues(source, intent).Inc()
	answerLatencySeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

func IncrementUnparsedQuestion(source string) {
	questionsUnparsedTotal.WithLabelValues(source).Inc()
}

func IncrementAnswerFailure(source string) {
	answerFailuresTotal.WithLabelValues(source).Inc()
}

func ObserveDatasetLoad(videos, snapshots int64, elapsed time.Duration) {
	datasetVideosLoaded.Set(float64(videos))
	datasetSnapshotsLoaded.Set(float64(snapshots))
	datasetLoadDurationSeconds.Observe(elapsed.Seconds())
}

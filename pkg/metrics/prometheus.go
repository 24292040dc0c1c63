package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches         *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	winRate         *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Default returns the process-wide recorder registered on the default registry.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = New(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// New creates a recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtedge_game_log_fetches_total",
				Help: "Game log fetches by provider backend and result",
			},
			[]string{"backend", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtedge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		recommendations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtedge_recommendations_total",
				Help: "Computed matchups by recommendation tier",
			},
			[]string{"tier"},
		),
		winRate: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "courtedge_recent_win_rate",
				Help: "Last computed recent win rate per team",
			},
			[]string{"team"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courtedge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts a game log fetch.
func (r *Recorder) RecordFetch(backend, result string) {
	r.fetches.WithLabelValues(backend, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRecommendation counts a computed matchup by tier.
func (r *Recorder) RecordRecommendation(tier string) {
	r.recommendations.WithLabelValues(tier).Inc()
}

// RecordWinRate stores the latest win rate for a team.
func (r *Recorder) RecordWinRate(team string, rate float64) {
	r.winRate.WithLabelValues(team).Set(rate)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Package metrics provides Prometheus metrics for the pairwise ranking pipeline.
//
// The pipeline is a batch job, so nothing is served over HTTP. The registry is
// dumped in text exposition format at the end of a run when requested.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector registered by the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Data
	gamesLoaded    prometheus.Gauge
	teamsLoaded    prometheus.Gauge
	scoresIngested prometheus.Counter
	stageDuration  *prometheus.HistogramVec

	// Stats API
	apiRequests *prometheus.CounterVec
	apiErrors   *prometheus.CounterVec

	// Sampler
	chainDraws      *prometheus.CounterVec
	chainDivergent  *prometheus.CounterVec
	chainStepSize   *prometheus.GaugeVec
	chainAcceptance prometheus.Histogram
	chainDuration   prometheus.Histogram
	maxRHat         prometheus.Gauge

	// Job queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	activeWorkers prometheus.Gauge

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keep Go runtime collectors out of the dump

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pairwise",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.gamesLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_loaded",
		Help:      "Number of games in the most recently loaded season table",
	})
	m.teamsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_loaded",
		Help:      "Number of distinct teams in the most recently loaded season table",
	})
	m.scoresIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_ingested_total",
		Help:      "Line scores written to the scores table",
	})
	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Wall time per pipeline stage",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
	}, []string{"stage"})

	m.apiRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_requests_total",
		Help:      "Stats API requests by endpoint",
	}, []string{"endpoint"})
	m.apiErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_errors_total",
		Help:      "Stats API failures by endpoint",
	}, []string{"endpoint"})

	m.chainDraws = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chain_draws_total",
		Help:      "Post-warmup draws kept per chain",
	}, []string{"chain"})
	m.chainDivergent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chain_divergences_total",
		Help:      "Divergent transitions after warmup per chain",
	}, []string{"chain"})
	m.chainStepSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chain_step_size",
		Help:      "Adapted leapfrog step size per chain",
	}, []string{"chain"})
	m.chainAcceptance = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chain_acceptance_ratio",
		Help:      "Mean post-warmup acceptance statistic per chain",
		Buckets:   []float64{0.1, 0.3, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 0.99},
	})
	m.chainDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chain_duration_seconds",
		Help:      "Wall time per chain including warmup",
		Buckets:   m.histogramBuckets,
	})
	m.maxRHat = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "max_split_rhat",
		Help:      "Largest split R-hat across parameters of the last fit",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Jobs waiting for a worker",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Capacity of the most recent job queue",
	})
	m.activeWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_workers",
		Help:      "Workers currently running a job",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})
}

// UpdateGamesLoaded records the size of the loaded game table.
func UpdateGamesLoaded(games, teams int) {
	globalManager.gamesLoaded.Set(float64(games))
	globalManager.teamsLoaded.Set(float64(teams))
}

// RecordScoreIngested counts one stored line score.
func RecordScoreIngested() {
	globalManager.scoresIngested.Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, seconds float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordAPIRequest counts a stats API call.
func RecordAPIRequest(endpoint string) {
	globalManager.apiRequests.WithLabelValues(endpoint).Inc()
}

// RecordAPIError counts a failed stats API call.
func RecordAPIError(endpoint string) {
	globalManager.apiErrors.WithLabelValues(endpoint).Inc()
}

// RecordChain publishes the summary of one finished chain.
func RecordChain(chain, draws, divergences int, stepSize, acceptance, seconds float64) {
	label := fmt.Sprintf("%d", chain)
	globalManager.chainDraws.WithLabelValues(label).Add(float64(draws))
	globalManager.chainDivergent.WithLabelValues(label).Add(float64(divergences))
	globalManager.chainStepSize.WithLabelValues(label).Set(stepSize)
	globalManager.chainAcceptance.Observe(acceptance)
	globalManager.chainDuration.Observe(seconds)
}

// UpdateMaxRHat sets the worst split R-hat of the last fit.
func UpdateMaxRHat(v float64) {
	globalManager.maxRHat.Set(v)
}

// UpdateQueueSize sets the number of waiting jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the job queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// AddActiveWorkers moves the busy-worker gauge by delta.
func AddActiveWorkers(delta int) {
	globalManager.activeWorkers.Add(float64(delta))
}

// RecordErrorByComponent counts an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the registry holding the pipeline collectors.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format to path.
func WriteTextfile(path string) error {
	if path == "" {
		return ErrNoPath
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

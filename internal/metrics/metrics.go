// Package metrics exposes Prometheus instruments for the video agent.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the agent's counters and histograms. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	QueriesTotal          *prometheus.CounterVec
	CompletionsTotal      *prometheus.CounterVec
	TranscriptionSeconds  *prometheus.HistogramVec
	UploadsTotal          *prometheus.CounterVec
	TempFilesRemovedTotal prometheus.Counter
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videoagent_queries_total",
				Help: "Queries processed, by classified intent",
			},
			[]string{"intent"},
		),
		CompletionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videoagent_completions_total",
				Help: "Completion API calls, by HTTP status (0 for transport failures)",
			},
			[]string{"provider", "status"},
		),
		TranscriptionSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "videoagent_transcription_seconds",
				Help:    "Time spent transcribing a media file",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"provider", "outcome"},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videoagent_uploads_total",
				Help: "Upload attempts, by outcome",
			},
			[]string{"outcome"},
		),
		TempFilesRemovedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "videoagent_temp_files_removed_total",
				Help: "Temporary media files removed by cleanup",
			},
		),
	}
}

func (m *Metrics) RecordQuery(intent string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(intent).Inc()
}

func (m *Metrics) RecordCompletion(provider string, status int) {
	if m == nil {
		return
	}
	m.CompletionsTotal.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}

func (m *Metrics) RecordTranscription(provider string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.TranscriptionSeconds.WithLabelValues(provider, outcome).Observe(seconds)
}

func (m *Metrics) RecordUpload(outcome string) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTempFilesRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TempFilesRemovedTotal.Add(float64(n))
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alternator",
			Name:      "source_loads_total",
			Help:      "Source document loads by slot and result",
		},
		[]string{"slot", "result"},
	)

	sourceBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alternator",
			Name:      "source_bytes",
			Help:      "Byte size of successfully loaded source documents",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	mergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alternator",
			Name:      "merges_total",
			Help:      "Merge attempts by result (success, error, rejected)",
		},
		[]string{"result"},
	)

	mergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alternator",
			Name:      "merge_duration_seconds",
			Help:      "Duration of successful interleave merges",
			Buckets:   prometheus.DefBuckets,
		},
	)

	interleavedPages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "alternator",
			Name:      "interleaved_pages_total",
			Help:      "Total pages written into merged artifacts",
		},
	)

	artifactBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alternator",
			Name:      "artifact_bytes",
			Help:      "Byte size of merged artifacts",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	mergesInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "alternator",
			Name:      "merges_inflight",
			Help:      "Merges currently executing on the worker pool",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(loadsTotal, sourceBytes, mergesTotal, mergeDuration, interleavedPages, artifactBytes, mergesInflight)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncLoad(slot, result string) { loadsTotal.WithLabelValues(slot, result).Inc() }

func ObserveSource(size int64) { sourceBytes.Observe(float64(size)) }

func IncMerge(result string) { mergesTotal.WithLabelValues(result).Inc() }

func ObserveMerge(pages int, size int64, dur time.Duration) {
	mergeDuration.Observe(dur.Seconds())
	interleavedPages.Add(float64(pages))
	artifactBytes.Observe(float64(size))
}

func MergeStarted()  { mergesInflight.Inc() }
func MergeFinished() { mergesInflight.Dec() }

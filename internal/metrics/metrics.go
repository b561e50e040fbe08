package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes recorded as the "source" label.
const (
	OutcomeSubstring    = "substring"
	OutcomePredicted    = "predicted"
	OutcomeEmptyKeyword = "empty_keyword"
	OutcomeError        = "error"
)

// Recorder owns a private registry with the resolver's metrics.
type Recorder struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	records     prometheus.Gauge
	keywords    prometheus.Gauge
}

// New creates a Recorder with every outcome series pre-initialised at zero.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkfinder_resolutions_total",
			Help: "Total keyword resolutions by outcome",
		}, []string{"source"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkfinder_dataset_records",
			Help: "Deduplicated records in the loaded dataset",
		}),
		keywords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkfinder_dataset_keywords",
			Help: "Distinct keywords in the loaded dataset",
		}),
	}
	r.registry.MustRegister(r.resolutions, r.records, r.keywords)
	for _, o := range []string{OutcomeSubstring, OutcomePredicted, OutcomeEmptyKeyword, OutcomeError} {
		r.resolutions.WithLabelValues(o)
	}
	return r
}

// RecordResolution counts one resolution with the given outcome.
func (r *Recorder) RecordResolution(outcome string) {
	r.resolutions.WithLabelValues(outcome).Inc()
}

// SetDataset publishes the size of the loaded dataset.
func (r *Recorder) SetDataset(records, keywords int) {
	r.records.Set(float64(records))
	r.keywords.Set(float64(keywords))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes catalog activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/kbase/internal/controller"
	"github.com/MrSnakeDoc/kbase/internal/domain"
)

const namespace = "kbase"

// CountSource reports the number of entries per category.
type CountSource interface {
	Counts() map[domain.Category]int
}

// Recorder owns a private registry so tests and multiple instances never collide.
type Recorder struct {
	registry *prometheus.Registry
	actions  *prometheus.CounterVec
	imports  prometheus.Counter
}

// NewRecorder registers the catalog metrics plus Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "actions_total",
			Help:      "Catalog mutations by action, category and outcome kind.",
		}, []string{"action", "category", "kind"}),
		imports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seed",
			Name:      "imports_total",
			Help:      "Completed seed imports.",
		}),
	}

	r.registry.MustRegister(
		r.actions,
		r.imports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Notify implements controller.Observer.
func (r *Recorder) Notify(s controller.Signal) {
	r.actions.WithLabelValues(string(s.Action), s.Category, string(s.Kind)).Inc()
	if s.Action == controller.ActionImport && s.Kind != controller.KindError {
		r.imports.Inc()
	}
}

// TrackEntries exports a gauge of entries per category read from src at scrape time.
func (r *Recorder) TrackEntries(src CountSource) error {
	return r.registry.Register(&entriesCollector{
		src: src,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "catalog", "entries"),
			"Entries currently in the catalog per category.",
			[]string{"category"}, nil,
		),
	})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

type entriesCollector struct {
	src  CountSource
	desc *prometheus.Desc
}

func (c *entriesCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c *entriesCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.src.Counts()
	for _, cat := range domain.Categories {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[cat]), cat.String())
	}
}

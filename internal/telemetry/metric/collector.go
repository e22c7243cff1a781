package metric

import "github.com/prometheus/client_golang/prometheus"

// RootCounter reports how many roots are registered.
type RootCounter interface {
	Len() int
}

// Collector reports registry state at gather time.
type Collector struct {
	src   RootCounter
	roots *prometheus.Desc
}

// NewCollector creates a collector reading from src.
func NewCollector(src RootCounter) *Collector {
	return &Collector{
		src: src,
		roots: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "registry", "roots"),
			"Directory roots with a registered token.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.roots
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.roots, prometheus.GaugeValue, float64(c.src.Len()))
}

package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zakopane-go/zakopane/internal/scan"
)

const namespace = "zakopane"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Scan metrics
	ScanFiles       *prometheus.GaugeVec
	ScanBytes       *prometheus.GaugeVec
	ScanSkipped     *prometheus.GaugeVec
	ScanDuration    *prometheus.GaugeVec
	ScanLastSuccess *prometheus.GaugeVec

	// Compare metrics
	ChangedPaths *prometheus.GaugeVec
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ScanFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "files",
			Help:      "Regular files hashed by the last scan.",
		}, []string{"root"}),
		ScanBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "bytes",
			Help:      "Bytes hashed by the last scan.",
		}, []string{"root"}),
		ScanSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "skipped",
			Help:      "Entries the last scan did not hash, by reason.",
		}, []string{"root", "reason"}),
		ScanDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of the last scan.",
		}, []string{"root"}),
		ScanLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful scan was captured.",
		}, []string{"root"}),
		ChangedPaths: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "changed_paths",
			Help:      "Paths whose digest differs between the compared snapshots.",
		}, []string{"root"}),
	}

	r.reg.MustRegister(
		r.ScanFiles,
		r.ScanBytes,
		r.ScanSkipped,
		r.ScanDuration,
		r.ScanLastSuccess,
		r.ChangedPaths,
	)
	return r
}

// Register adds an extra collector, such as a Collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry for inspection.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveScan records the outcome of a successful scan of root captured at t.
func (r *Registry) ObserveScan(root string, st scan.Stats, t time.Time) {
	r.ScanFiles.WithLabelValues(root).Set(float64(st.Files))
	r.ScanBytes.WithLabelValues(root).Set(float64(st.Bytes))
	r.ScanSkipped.WithLabelValues(root, "symlink").Set(float64(st.Symlinks))
	r.ScanSkipped.WithLabelValues(root, "excluded").Set(float64(st.Excluded))
	r.ScanSkipped.WithLabelValues(root, "special").Set(float64(st.Skipped))
	r.ScanSkipped.WithLabelValues(root, "error").Set(float64(st.Errors))
	r.ScanDuration.WithLabelValues(root).Set(st.Elapsed.Seconds())
	r.ScanLastSuccess.WithLabelValues(root).Set(float64(t.UnixNano()) / float64(time.Second))
}

// ObserveCompare records how many paths changed for root.
func (r *Registry) ObserveCompare(root string, changed int) {
	r.ChangedPaths.WithLabelValues(root).Set(float64(changed))
}

// WriteTextfile atomically writes every metric to path in the Prometheus
// text format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

// Package metric exposes scan and comparison results as Prometheus metrics.
//
// zakopane is a short-lived command, so metrics are not served over HTTP.
// They are written in the text exposition format to a file that a node
// exporter textfile collector picks up.
package metric

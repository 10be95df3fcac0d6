// Package metrics counts what a reconciliation pass does.
//
// The tool is a short-lived command, so nothing is served: counters live in a
// private Prometheus registry and are written once, at the end of the pass, to
// a textfile for the node exporter textfile collector.
package metrics

// Package metrics exports pipeline activity to Prometheus.
//
// A Recorder owns its registry; Handler serves it for scraping.
package metrics

// Package recorder persists pipeline runs for later analysis.
package recorder

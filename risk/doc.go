// Package risk computes summary risk metrics from a cumulative-return path.
package risk

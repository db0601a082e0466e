// Package logging builds the zerolog logger used across the command and the
// forecasting packages.
package logging

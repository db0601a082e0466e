// Package scheduler re-runs a job on a cron schedule.
package scheduler

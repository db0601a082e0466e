package recorder

import (
	"context"
	"time"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/pipeline"
)

// Run is a stored run header.
type Run struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	Rows        int
	DroppedRows int
	Series      int
	Viable      int
}

// Recorder persists run reports.
type Recorder interface {
	// RecordRun stores report and returns the run identifier.
	RecordRun(ctx context.Context, report *pipeline.Report) (string, error)
	Close() error
}

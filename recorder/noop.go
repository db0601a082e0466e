package recorder

import (
	"context"

	"github.com/google/uuid"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/pipeline"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *pipeline.Report) (string, error) {
	return uuid.NewString(), nil
}

func (n *NoopRecorder) Close() error { return nil }

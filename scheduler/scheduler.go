package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrBusy is returned by RunNow while a run is in progress.
var ErrBusy = errors.New("scheduler: run already in progress")

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a six-field (seconds first) cron spec. A tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	ctx     context.Context
	log     zerolog.Logger
	running atomic.Bool
	runs    atomic.Int64
}

// New registers job under spec. Runs receive ctx.
func New(ctx context.Context, spec string, job Job, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		job:  job,
		ctx:  ctx,
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("register %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the job immediately.
func (s *Scheduler) RunNow() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.running.Store(false)

	started := time.Now()
	n := s.runs.Add(1)
	err := s.job(s.ctx)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Int64("run", n).Dur("took", time.Since(started)).Msg("scheduled run finished")
	return err
}

// Runs returns the number of runs started so far.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Next returns the next scheduled time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) tick() {
	if err := s.RunNow(); errors.Is(err, ErrBusy) {
		s.log.Warn().Msg("previous run still in progress, tick skipped")
	}
}

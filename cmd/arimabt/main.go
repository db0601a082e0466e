// Command arimabt fits ARIMA models to a price table, backtests a directional
// strategy on walk-forward forecasts and reports risk metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/config"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/logging"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/metrics"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/pipeline"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/recorder"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/scheduler"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

func main() {
	cfgPath := flag.String("config", "configs/arimabt.yaml", "path to the YAML config")
	dataPath := flag.String("data", "", "price CSV (overrides data.path)")
	once := flag.Bool("once", false, "run once even when a schedule is configured")
	outPath := flag.String("out", "", "JSON report path (overrides output.path)")
	flag.Parse()

	boot := zerolog.New(os.Stderr)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		boot.Warn().Err(err).Msg("load .env")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *outPath != "" {
		cfg.Output.Path = *outPath
	}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		boot.Fatal().Err(err).Msg("init logger")
	}
	defer closer.Close()

	if err := run(cfg, *once, log); err != nil {
		log.Error().Err(err).Msg("arimabt failed")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, once bool, log zerolog.Logger) error {
	if cfg.Data.Path == "" {
		return errors.New("no data file: set data.path, ARIMABT_DATA_PATH or -data")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cal, err := cfg.BuildCalendar()
	if err != nil {
		return err
	}
	pcfg, err := cfg.Pipeline()
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(log)}
	var prom *metrics.Recorder
	if cfg.Metrics.Enabled {
		prom = metrics.New()
		opts = append(opts, pipeline.WithMetrics(prom))
		srv := serveMetrics(cfg.Metrics.Addr, cfg.Metrics.Path, prom, log)
		defer stopMetrics(srv, 5*time.Second, log)
	}
	runner := pipeline.New(pcfg, cal, opts...)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	job := func(ctx context.Context) error {
		err := runOnce(ctx, cfg, runner, rec, log)
		if prom != nil {
			prom.RunCompleted(time.Now(), err)
		}
		return err
	}

	if once || cfg.Schedule.Cron == "" {
		return job(ctx)
	}

	sched, err := scheduler.New(ctx, cfg.Schedule.Cron, job, log)
	if err != nil {
		return err
	}
	sched.Start()
	log.Info().Str("cron", cfg.Schedule.Cron).Time("next", sched.Next()).Msg("waiting for schedule")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")
	sched.Stop()
	return nil
}

func runOnce(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, rec recorder.Recorder, log zerolog.Logger) error {
	frame, err := timeseries.LoadFrameCSV(cfg.Data.Path, cfg.CSV())
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.Data.Path).Int("rows", frame.Len()).Strs("columns", frame.Names()).Msg("data loaded")

	report, err := runner.Run(ctx, frame)
	if err != nil {
		return err
	}
	if report.Empty() {
		log.Warn().Int("series", len(report.Series)).Msg("no results: no series produced a backtest")
		return nil
	}

	runID, err := rec.RecordRun(ctx, report)
	if err != nil {
		log.Error().Err(err).Msg("record run")
	}

	if cfg.Output.Path != "" {
		if err := writeJSON(cfg.Output.Path, buildOutput(runID, report)); err != nil {
			return err
		}
		log.Info().Str("path", cfg.Output.Path).Msg("report written")
	}

	printSummary(os.Stdout, report)
	return nil
}

func serveMetrics(addr, path string, prom *metrics.Recorder, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, prom.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Str("path", path).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}

// stopMetrics shuts the metrics server down, waiting up to timeout for
// in-flight scrapes.
func stopMetrics(srv *http.Server, timeout time.Duration, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown")
		return err
	}
	return nil
}

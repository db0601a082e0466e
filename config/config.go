package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/arima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/autoarima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/backtest"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/calendar"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/logging"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/pipeline"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/rolling"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Path       string   `yaml:"path"`
		DateColumn string   `yaml:"date_column"`
		Columns    []string `yaml:"columns"`
		IDColumn   string   `yaml:"id_column"`
		IDFilter   string   `yaml:"id_filter"`
		DateFormat string   `yaml:"date_format" default:"2006-01-02"`
	} `yaml:"data"`
	Calendar struct {
		Weekend       []string `yaml:"weekend" default:"[\"Saturday\",\"Sunday\"]"`
		Holidays      []string `yaml:"holidays"`
		HolidayLayout string   `yaml:"holiday_layout" default:"2006-01-02"`
	} `yaml:"calendar"`
	Search struct {
		MaxP      int     `yaml:"max_p" default:"3" validate:"gte=0,lte=5"`
		MaxD      int     `yaml:"max_d" default:"2" validate:"gte=0,lte=2"`
		MaxQ      int     `yaml:"max_q" default:"3" validate:"gte=0,lte=5"`
		Joint     bool    `yaml:"joint"`
		Criterion string  `yaml:"criterion" default:"aic" validate:"oneof=aic aicc bic"`
		Test      string  `yaml:"test" default:"adf" validate:"oneof=adf kpss"`
		Alpha     float64 `yaml:"alpha" default:"0.05" validate:"gt=0,lt=1"`
	} `yaml:"search"`
	Forecast struct {
		Window          int    `yaml:"window" default:"100" validate:"gte=1"`
		Mode            string `yaml:"mode" default:"expanding" validate:"oneof=expanding sliding"`
		Horizon         int    `yaml:"horizon" default:"5" validate:"gte=0"`
		MinObservations int    `yaml:"min_observations" default:"10" validate:"gte=1"`
		Workers         int    `yaml:"workers" validate:"gte=0"`
	} `yaml:"forecast"`
	Backtest struct {
		VolWindow      int `yaml:"vol_window" default:"20" validate:"gte=2"`
		PeriodsPerYear int `yaml:"periods_per_year" default:"252" validate:"gte=1"`
		RecentDays     int `yaml:"recent_days" default:"5" validate:"gte=0"`
	} `yaml:"backtest"`
	Log      logging.Config `yaml:"log"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr" default:":9108"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Output struct {
		Path string `yaml:"path"`
	} `yaml:"output"`
}

var validate = validator.New()

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides and validates the result. A missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ARIMABT_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("ARIMABT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ARIMABT_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ARIMABT_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and that the calendar parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.BuildCalendar(); err != nil {
		return err
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// BuildCalendar returns the trading calendar described by the config.
func (c *Config) BuildCalendar() (*calendar.Calendar, error) {
	weekend := make([]time.Weekday, 0, len(c.Calendar.Weekend))
	for _, name := range c.Calendar.Weekend {
		d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("calendar.weekend: unknown day %q", name)
		}
		weekend = append(weekend, d)
	}

	holidays, err := calendar.ParseHolidays(c.Calendar.HolidayLayout, c.Calendar.Holidays)
	if err != nil {
		return nil, fmt.Errorf("calendar.holidays: %w", err)
	}
	return calendar.New(calendar.WithWeekend(weekend...), calendar.WithHolidays(holidays...)), nil
}

// Pipeline returns the run settings described by the config.
func (c *Config) Pipeline() (pipeline.Config, error) {
	criterion, err := arima.ParseCriterion(c.Search.Criterion)
	if err != nil {
		return pipeline.Config{}, err
	}
	test, err := autoarima.ParseStationarityTest(c.Search.Test)
	if err != nil {
		return pipeline.Config{}, err
	}
	mode, err := rolling.ParseMode(c.Forecast.Mode)
	if err != nil {
		return pipeline.Config{}, err
	}

	return pipeline.Config{
		Columns: c.Data.Columns,
		Search: &autoarima.Config{
			MaxP:        c.Search.MaxP,
			MaxD:        c.Search.MaxD,
			MaxQ:        c.Search.MaxQ,
			JointD:      c.Search.Joint,
			Criterion:   criterion,
			StationTest: test,
			Alpha:       c.Search.Alpha,
			Workers:     c.Forecast.Workers,
		},
		MinObservations: c.Forecast.MinObservations,
		Window:          c.Forecast.Window,
		Mode:            mode,
		Horizon:         c.Forecast.Horizon,
		RecentDays:      c.Backtest.RecentDays,
		Workers:         c.Forecast.Workers,
		Backtest: backtest.Config{
			VolWindow:      c.Backtest.VolWindow,
			PeriodsPerYear: c.Backtest.PeriodsPerYear,
		},
	}, nil
}

// CSV returns the loader options for the configured data file.
func (c *Config) CSV() *timeseries.CSVOptions {
	opts := timeseries.DefaultCSVOptions()
	opts.DateColumn = c.Data.DateColumn
	opts.Columns = c.Data.Columns
	opts.IDColumn = c.Data.IDColumn
	opts.IDFilter = c.Data.IDFilter
	if c.Data.DateFormat != "" {
		opts.DateFormat = c.Data.DateFormat
	}
	return opts
}

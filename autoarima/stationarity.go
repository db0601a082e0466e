package autoarima

import (
	"fmt"
	"strings"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/stats"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// StationarityTest names the unit-root test used to pick d.
type StationarityTest string

const (
	TestADF  StationarityTest = "adf"
	TestKPSS StationarityTest = "kpss"
)

// ParseStationarityTest accepts "adf" or "kpss"; empty means ADF.
func ParseStationarityTest(s string) (StationarityTest, error) {
	switch StationarityTest(strings.ToLower(strings.TrimSpace(s))) {
	case "", TestADF:
		return TestADF, nil
	case TestKPSS:
		return TestKPSS, nil
	}
	return TestADF, fmt.Errorf("autoarima: unknown stationarity test %q", s)
}

// DetermineD returns the number of differences needed to make series
// stationary, capped at maxD. The series is differenced while the test
// fails to establish stationarity at alpha. When the test cannot run on the
// current series (too short, missing values) the current d is returned.
func DetermineD(series *timeseries.Series, maxD int, test StationarityTest, alpha float64) int {
	current := series
	for d := 0; d < maxD; d++ {
		stationary, err := isStationary(current, test, alpha)
		if err != nil || stationary {
			return d
		}
		current = current.Diff()
	}
	return maxD
}

func isStationary(series *timeseries.Series, test StationarityTest, alpha float64) (bool, error) {
	if test == TestKPSS {
		res, err := stats.KPSS(series, "c", 0)
		if err != nil {
			return false, err
		}
		return res.Stationary(alpha), nil
	}

	res, err := stats.ADF(series, 0)
	if err != nil {
		return false, err
	}
	return res.Stationary(alpha), nil
}

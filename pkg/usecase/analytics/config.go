package analytics

import (
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	// MinRefreshInterval is the shortest allowed dashboard refresh interval
	MinRefreshInterval = 10 * time.Second
	// DefaultTTL is how long a built dashboard is served from cache
	DefaultTTL = 5 * time.Minute
)

// timeRanges maps the supported range selectors to their length in days
var timeRanges = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// RangeDays returns the number of days covered by timeRange
func RangeDays(timeRange string) (int, bool) {
	days, ok := timeRanges[timeRange]
	return days, ok
}

// Config controls how dashboards are built
type Config struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MaxTools        int           `yaml:"max_tools"`
	TimeRange       string        `yaml:"time_range"`
}

func DefaultConfig() Config {
	return Config{
		RefreshInterval: 30 * time.Second,
		MaxTools:        5,
		TimeRange:       "7d",
	}
}

// Validate reports the first invalid field as a coded *Error
func (c Config) Validate() error {
	if c.RefreshInterval < MinRefreshInterval {
		return newError(CodeInvalidRefreshInterval,
			fmt.Sprintf("refresh interval must be at least %s, got %s", MinRefreshInterval, c.RefreshInterval), nil)
	}
	if c.MaxTools < 1 {
		return newError(CodeInvalidMaxTools,
			fmt.Sprintf("max tools must be at least 1, got %d", c.MaxTools), nil)
	}
	if _, ok := timeRanges[c.TimeRange]; !ok {
		return newError(CodeInvalidTimeRange,
			fmt.Sprintf("unknown time range %q, expected one of 7d, 30d, 90d", c.TimeRange), nil)
	}
	return nil
}

// LoadConfig reads a YAML config file. Fields absent from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, goerr.Wrap(err, "failed to read analytics config", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, goerr.Wrap(err, "failed to parse analytics config", goerr.V("path", path))
	}

	return cfg, nil
}

// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config filled with defaults; Load layers file and env on top.
// - Validate must pass before a Config reaches any pipeline stage.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Accepted values for the enumerated fields.
var (
	models  = map[string]bool{"binary": true, "binary_home": true, "ordinal": true, "ordinal_home": true}
	scales  = map[string]bool{"": true, "log": true, "raw": true}
	formats = map[string]bool{"csv": true, "json": true, "yaml": true}
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath is the DuckDB database file.
	DBPath string `koanf:"db_path"`

	// Season selects the season fitted by the fit command.
	Season int `koanf:"season"`

	// Model names the model variant: binary, binary_home, ordinal, ordinal_home.
	Model string `koanf:"model"`

	// HomeIntercept forces the home-field term on for any variant.
	HomeIntercept bool `koanf:"home_intercept"`

	// AbilityScale overrides the variant's ability parameterisation (log or raw).
	// Empty keeps the variant default.
	AbilityScale string `koanf:"ability_scale"`

	// Prior standard deviations of the team abilities (on the log scale for
	// log-scale variants) and of the home-field intercept.
	AbilityPriorSD   float64 `koanf:"ability_prior_sd"`
	InterceptPriorSD float64 `koanf:"intercept_prior_sd"`

	// Seasons and Models turn the fit command into a batch over every
	// season and model listed. Seasons accepts "2019-2024", "2019,2021" or a
	// mix of both; Models is a comma separated list of variant names. Empty
	// values fall back to Season and Model.
	Seasons string `koanf:"seasons"`
	Models  string `koanf:"models"`

	// Sampler settings.
	Chains        int     `koanf:"chains"`
	Warmup        int     `koanf:"warmup"`
	Draws         int     `koanf:"draws"`
	Seed          uint64  `koanf:"seed"`
	LeapfrogSteps int     `koanf:"leapfrog_steps"`
	TargetAccept  float64 `koanf:"target_accept"`

	// OutputDir receives the estimates file and the rank plot.
	OutputDir string `koanf:"output_dir"`

	// EstimatesFormat is csv, json or yaml.
	EstimatesFormat string `koanf:"estimates_format"`

	// Plot toggles the violin plot.
	Plot bool `koanf:"plot"`

	// MetricsFile, when set, receives a Prometheus text dump after each run.
	MetricsFile string `koanf:"metrics_file"`

	// Stats API settings used by ingest.
	APIBaseURL   string `koanf:"api_base_url"`
	APITimeoutMS int    `koanf:"api_timeout_ms"`

	// FirstScoreSeason is the earliest season whose line scores are ingested.
	FirstScoreSeason int `koanf:"first_score_season"`

	// IngestWorkers bounds concurrent line score fetches.
	IngestWorkers int `koanf:"ingest_workers"`

	// IngestRetries is how many extra passes retry failed line score fetches.
	IngestRetries int `koanf:"ingest_retries"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		DBPath:           "./data/mlb.duckdb",
		Season:           2024,
		Model:            "binary",
		AbilityPriorSD:   1,
		InterceptPriorSD: 1,
		Chains:           4,
		Warmup:           1000,
		Draws:            1000,
		Seed:             123,
		LeapfrogSteps:    16,
		TargetAccept:     0.8,
		OutputDir:        "./_output",
		EstimatesFormat:  "csv",
		Plot:             true,
		APIBaseURL:       "https://statsapi.mlb.com/api/v1",
		APITimeoutMS:     30_000,
		FirstScoreSeason: 2019,
		IngestWorkers:    8,
		IngestRetries:    1,
	}
}

// APITimeout returns the stats API timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

// Validate checks the configuration and reports the first problem found.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.Chains < 1:
		return fmt.Errorf("%w: chains must be at least 1, got %d", ErrInvalidConfig, c.Chains)
	case c.Draws < 1:
		return fmt.Errorf("%w: draws must be at least 1, got %d", ErrInvalidConfig, c.Draws)
	case c.Warmup < 0:
		return fmt.Errorf("%w: warmup must not be negative, got %d", ErrInvalidConfig, c.Warmup)
	case c.LeapfrogSteps < 1:
		return fmt.Errorf("%w: leapfrog_steps must be at least 1, got %d", ErrInvalidConfig, c.LeapfrogSteps)
	case c.TargetAccept <= 0 || c.TargetAccept >= 1:
		return fmt.Errorf("%w: target_accept must be in (0,1), got %g", ErrInvalidConfig, c.TargetAccept)
	case !models[c.Model]:
		return fmt.Errorf("%w: unknown model %q", ErrInvalidConfig, c.Model)
	case !scales[c.AbilityScale]:
		return fmt.Errorf("%w: unknown ability_scale %q", ErrInvalidConfig, c.AbilityScale)
	case !formats[c.EstimatesFormat]:
		return fmt.Errorf("%w: unknown estimates_format %q", ErrInvalidConfig, c.EstimatesFormat)
	case c.IngestWorkers < 1:
		return fmt.Errorf("%w: ingest_workers must be at least 1, got %d", ErrInvalidConfig, c.IngestWorkers)
	case c.IngestRetries < 0:
		return fmt.Errorf("%w: ingest_retries must not be negative, got %d", ErrInvalidConfig, c.IngestRetries)
	case !(c.AbilityPriorSD > 0):
		return fmt.Errorf("%w: ability_prior_sd must be positive, got %g", ErrInvalidConfig, c.AbilityPriorSD)
	case !(c.InterceptPriorSD > 0):
		return fmt.Errorf("%w: intercept_prior_sd must be positive, got %g", ErrInvalidConfig, c.InterceptPriorSD)
	}
	if _, err := c.FitSeasons(); err != nil {
		return err
	}
	if _, err := c.FitModels(); err != nil {
		return err
	}
	return nil
}

// Batch reports whether the fit command runs over several seasons or models.
func (c *Config) Batch() bool {
	return strings.TrimSpace(c.Seasons) != "" || strings.TrimSpace(c.Models) != ""
}

// FitSeasons expands Seasons into an ascending list without repeats, or
// returns Season alone when Seasons is empty.
func (c *Config) FitSeasons() ([]int, error) {
	if strings.TrimSpace(c.Seasons) == "" {
		return []int{c.Season}, nil
	}
	seen := map[int]bool{}
	var out []int
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	for _, part := range strings.Split(c.Seasons, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: bad season %q in seasons", ErrInvalidConfig, part)
		}
		hi := lo
		if isRange {
			if hi, err = strconv.Atoi(strings.TrimSpace(to)); err != nil {
				return nil, fmt.Errorf("%w: bad season range %q", ErrInvalidConfig, part)
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("%w: season range %q runs backwards", ErrInvalidConfig, part)
		}
		for y := lo; y <= hi; y++ {
			add(y)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: seasons %q lists no season", ErrInvalidConfig, c.Seasons)
	}
	slices.Sort(out)
	return out, nil
}

// FitModels splits Models into variant names in the order given, or returns
// Model alone when Models is empty.
func (c *Config) FitModels() ([]string, error) {
	if strings.TrimSpace(c.Models) == "" {
		return []string{c.Model}, nil
	}
	var out []string
	for _, name := range strings.Split(c.Models, ",") {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		if !models[name] {
			return nil, fmt.Errorf("%w: unknown model %q in models", ErrInvalidConfig, name)
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: models %q lists no model", ErrInvalidConfig, c.Models)
	}
	return out, nil
}

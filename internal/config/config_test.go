package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/pairwise/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.DBPath, convey.ShouldEqual, "./data/mlb.duckdb")
			convey.So(cfg.Season, convey.ShouldEqual, 2024)
			convey.So(cfg.Model, convey.ShouldEqual, "binary")
			convey.So(cfg.Chains, convey.ShouldEqual, 4)
			convey.So(cfg.Warmup, convey.ShouldEqual, 1000)
			convey.So(cfg.Draws, convey.ShouldEqual, 1000)
			convey.So(cfg.Seed, convey.ShouldEqual, 123)
			convey.So(cfg.TargetAccept, convey.ShouldEqual, 0.8)
			convey.So(cfg.EstimatesFormat, convey.ShouldEqual, "csv")
			convey.So(cfg.APITimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.AbilityPriorSD, convey.ShouldEqual, 1.0)
			convey.So(cfg.InterceptPriorSD, convey.ShouldEqual, 1.0)
			convey.So(cfg.IngestRetries, convey.ShouldEqual, 1)
			convey.So(cfg.Batch(), convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := map[string]func(*config.Config){
			"empty db path":       func(c *config.Config) { c.DBPath = "" },
			"zero chains":         func(c *config.Config) { c.Chains = 0 },
			"zero draws":          func(c *config.Config) { c.Draws = 0 },
			"negative warmup":     func(c *config.Config) { c.Warmup = -1 },
			"zero leapfrog steps": func(c *config.Config) { c.LeapfrogSteps = 0 },
			"target accept of 1":  func(c *config.Config) { c.TargetAccept = 1 },
			"target accept of 0":  func(c *config.Config) { c.TargetAccept = 0 },
			"unknown model":       func(c *config.Config) { c.Model = "poisson" },
			"unknown scale":       func(c *config.Config) { c.AbilityScale = "sqrt" },
			"unknown format":      func(c *config.Config) { c.EstimatesFormat = "xlsx" },
			"zero ingest workers": func(c *config.Config) { c.IngestWorkers = 0 },
			"negative retries":    func(c *config.Config) { c.IngestRetries = -1 },
			"zero ability sd":     func(c *config.Config) { c.AbilityPriorSD = 0 },
			"negative home sd":    func(c *config.Config) { c.InterceptPriorSD = -1 },
			"backwards seasons":   func(c *config.Config) { c.Seasons = "2024-2019" },
			"garbled seasons":     func(c *config.Config) { c.Seasons = "2019-x" },
			"unknown batch model": func(c *config.Config) { c.Models = "binary,poisson" },
			"empty models list":   func(c *config.Config) { c.Models = " , " },
		}

		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then ErrInvalidConfig is returned", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When zero warmup is requested", func() {
			cfg := config.New()
			cfg.Warmup = 0

			convey.Convey("Then it is accepted", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_FitBatch(t *testing.T) {
	convey.Convey("Given a config without season or model lists", t, func() {
		cfg := config.New()
		cfg.Season, cfg.Model = 2022, "ordinal"

		convey.Convey("Then the single season and model are fitted", func() {
			seasons, err := cfg.FitSeasons()
			convey.So(err, convey.ShouldBeNil)
			convey.So(seasons, convey.ShouldResemble, []int{2022})
			names, err := cfg.FitModels()
			convey.So(err, convey.ShouldBeNil)
			convey.So(names, convey.ShouldResemble, []string{"ordinal"})
		})

		convey.Convey("When a range and a list are mixed", func() {
			cfg.Seasons = "2023-2024, 2019 ,2021-2021,2024"
			cfg.Models = "binary, binary_home,binary"

			convey.Convey("Then seasons are expanded in order without repeats", func() {
				convey.So(cfg.Batch(), convey.ShouldBeTrue)
				seasons, err := cfg.FitSeasons()
				convey.So(err, convey.ShouldBeNil)
				convey.So(seasons, convey.ShouldResemble, []int{2019, 2021, 2023, 2024})
			})

			convey.Convey("And models keep the order given", func() {
				names, err := cfg.FitModels()
				convey.So(err, convey.ShouldBeNil)
				convey.So(names, convey.ShouldResemble, []string{"binary", "binary_home"})
			})
		})
	})
}

package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/mmr/internal/config"
	"github.com/okian/mmr/internal/domain/performance"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.ProcessTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.OpenSkillTau, convey.ShouldEqual, 0)
			convey.So(cfg.Weights, convey.ShouldResemble, performance.DefaultWeights())
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "mmr")
			convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "rating")
			convey.So(cfg.LatencyBucketsMS, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one invalid field each", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }, "addr must not be empty"},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }, "queue_size"},
			{"negative dedupe", func(c *config.Config) { c.DedupeSize = -1 }, "dedupe_size"},
			{"zero leaderboard limit", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }, "max_leaderboard_limit"},
			{"zero timeout", func(c *config.Config) { c.ProcessTimeoutMS = 0 }, "process_timeout_ms"},
			{"negative tau", func(c *config.Config) { c.OpenSkillTau = -0.1 }, "openskill_tau"},
			{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"unknown level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"},
			{"unsorted buckets", func(c *config.Config) { c.LatencyBucketsMS = []float64{5, 1} }, "latency_buckets_ms"},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
			})
		}

		convey.Convey("Then a zero dedupe size is allowed", func() {
			cfg := config.New()
			cfg.DedupeSize = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

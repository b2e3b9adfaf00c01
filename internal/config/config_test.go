package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/zanshin/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.MongoURI, convey.ShouldBeEmpty)
			convey.So(cfg.MongoDatabase, convey.ShouldEqual, "zanshin")
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.DefaultTopN, convey.ShouldEqual, 10)
			convey.So(cfg.MaxTopN, convey.ShouldEqual, 50)
			convey.So(cfg.AllowSuddenDeath, convey.ShouldBeTrue)
			convey.So(cfg.AllowPanelDecision, convey.ShouldBeTrue)
			convey.So(cfg.AutoComputeOutcome, convey.ShouldBeTrue)
			convey.So(cfg.SummaryURL, convey.ShouldBeEmpty)
			convey.So(cfg.SummaryRequestsPerMinute, convey.ShouldEqual, 20)
		})
	})
}

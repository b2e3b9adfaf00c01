package summary_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/zanshin/internal/domain/stats"
	"github.com/okian/zanshin/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleStats() stats.PlayerStats {
	avg := 112.5
	fastest, slowest := 45, 180
	return stats.PlayerStats{
		PlayerID:          "yamada",
		Matches:           1,
		Bouts:             1,
		Wins:              1,
		PointsFor:         2,
		WinRate:           1,
		PointsPerBout:     2,
		Differential:      2,
		AvgTimeToScoreSec: &avg,
		FastestScoreSec:   &fastest,
		SlowestScoreSec:   &slowest,
		TopFor: []stats.TechniqueCount{
			{Key: "KOTE:KAESHI", Count: 1},
			{Key: "MEN:DEBANA", Count: 1},
		},
		HeadToHead: []stats.OpponentRecord{
			{OpponentID: "suzuki", Bouts: 1, Wins: 1, PointsFor: 2},
		},
	}
}

func TestBuild(t *testing.T) {
	Convey("Given an aggregation result and its filter", t, func() {
		from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		f := stats.Filter{From: &from, Officialness: stats.OfficialnessOfficial, Tournament: "Kanto"}

		p := summary.Build(sampleStats(), f, stats.GranularityDetailed, "strong debana month")

		Convey("All fields are carried over explicitly", func() {
			So(p.PlayerID, ShouldEqual, "yamada")
			So(p.Filter.DateFrom, ShouldEqual, "2025-04-01")
			So(p.Filter.DateTo, ShouldBeEmpty)
			So(p.Filter.Officialness, ShouldEqual, "official")
			So(p.Filter.Tournament, ShouldEqual, "Kanto")
			So(p.Samples.Matches, ShouldEqual, 1)
			So(p.Samples.Bouts, ShouldEqual, 1)
			So(p.Samples.Points, ShouldEqual, 2)
			So(p.TopFor, ShouldResemble, sampleStats().TopFor)
			So(p.Notes, ShouldEqual, "strong debana month")
			So(p.Granularity, ShouldEqual, "detailed")
		})

		Convey("An unset officialness defaults to all", func() {
			q := summary.Build(sampleStats(), stats.Filter{}, stats.GranularityCoarse, "")
			So(q.Filter.Officialness, ShouldEqual, "all")
		})
	})
}

func TestBuildDeterminism(t *testing.T) {
	Convey("Given identical inputs", t, func() {
		f := stats.Filter{Officialness: stats.OfficialnessAll}

		Convey("The serialized payload is byte-identical across builds", func() {
			a, errA := json.Marshal(summary.Build(sampleStats(), f, stats.GranularityDetailed, "n"))
			b, errB := json.Marshal(summary.Build(sampleStats(), f, stats.GranularityDetailed, "n"))
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(string(a), ShouldEqual, string(b))
		})
	})
}

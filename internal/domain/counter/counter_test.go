package counter_test

import (
	"testing"
	"time"

	"github.com/okian/zanshin/internal/domain/counter"
	"github.com/okian/zanshin/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var recordedAt = time.Date(2025, 8, 31, 23, 45, 0, 0, time.UTC)

func point(scorer, target string, methods ...string) model.Point {
	return model.Point{
		ScorerID:   scorer,
		Target:     target,
		Methods:    methods,
		RecordedAt: recordedAt,
	}
}

func TestIncrements(t *testing.T) {
	Convey("Given a recorded point", t, func() {
		Convey("It yields one target key and one key per method", func() {
			keys := counter.Increments(point("yamada", "KOTE", "SURIAGE", "HIDARI"))
			So(keys, ShouldResemble, []counter.Key{
				{PlayerID: "yamada", Date: "2025-08-31", Kind: model.CounterTarget, Name: "KOTE"},
				{PlayerID: "yamada", Date: "2025-08-31", Kind: model.CounterMethod, Name: "SURIAGE"},
				{PlayerID: "yamada", Date: "2025-08-31", Kind: model.CounterMethod, Name: "HIDARI"},
			})
		})

		Convey("A method-less point still counts its target exactly once", func() {
			keys := counter.Increments(point("yamada", "MEN"))
			So(len(keys), ShouldEqual, 1)
			So(keys[0].Kind, ShouldEqual, model.CounterTarget)
		})

		Convey("Missing scorer, target or timestamp skips the point entirely", func() {
			So(counter.Increments(point("", "MEN", "DEBANA")), ShouldBeNil)
			So(counter.Increments(point("yamada", "", "DEBANA")), ShouldBeNil)

			p := point("yamada", "MEN", "DEBANA")
			p.RecordedAt = time.Time{}
			So(counter.Increments(p), ShouldBeNil)
		})

		Convey("The date is the calendar portion of the UTC timestamp", func() {
			p := point("yamada", "MEN")
			p.RecordedAt = time.Date(2025, 9, 1, 0, 0, 1, 0, time.UTC)
			So(counter.Increments(p)[0].Date, ShouldEqual, "2025-09-01")
		})
	})
}

func TestFromEvent(t *testing.T) {
	Convey("Given a queue event", t, func() {
		e := model.PointEvent{
			EventID:    "p1:1",
			PointID:    "p1",
			ScorerID:   "yamada",
			Target:     "DO",
			Methods:    []string{"GYAKU"},
			RecordedAt: recordedAt,
		}

		Convey("It derives the same keys as the point it came from", func() {
			So(counter.FromEvent(e), ShouldResemble, counter.Increments(point("yamada", "DO", "GYAKU")))
		})
	})
}

func TestRebuild(t *testing.T) {
	Convey("Given a point history", t, func() {
		history := []model.Point{
			point("yamada", "KOTE", "KAESHI"),
			point("yamada", "KOTE", "KAESHI"),
			point("yamada", "MEN", "DEBANA"),
			point("suzuki", "MEN"),
			{ScorerID: "yamada"}, // foul point, no target: skipped
		}

		Convey("Totals replay the per-point derivation", func() {
			totals := counter.Rebuild(history)
			So(totals[counter.Key{PlayerID: "yamada", Date: "2025-08-31", Kind: model.CounterTarget, Name: "KOTE"}], ShouldEqual, 2)
			So(totals[counter.Key{PlayerID: "yamada", Date: "2025-08-31", Kind: model.CounterMethod, Name: "KAESHI"}], ShouldEqual, 2)
			So(totals[counter.Key{PlayerID: "yamada", Date: "2025-08-31", Kind: model.CounterTarget, Name: "MEN"}], ShouldEqual, 1)
			So(totals[counter.Key{PlayerID: "suzuki", Date: "2025-08-31", Kind: model.CounterTarget, Name: "MEN"}], ShouldEqual, 1)
		})

		Convey("Rebuilding twice over the same history is identical", func() {
			So(counter.Rebuild(history), ShouldResemble, counter.Rebuild(history))
		})

		Convey("Incremental application converges with the batch totals", func() {
			incremental := make(map[counter.Key]int64)
			for _, p := range history {
				for _, k := range counter.Increments(p) {
					incremental[k]++
				}
			}
			So(incremental, ShouldResemble, counter.Rebuild(history))
		})
	})
}

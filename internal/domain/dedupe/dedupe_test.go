package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/zanshin/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("An unseen id is recorded and reported new", func() {
			So(d.SeenAndRecord(ctx, "p1:1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A repeated id is reported as seen", func() {
			So(d.SeenAndRecord(ctx, "p1:1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "p1:1"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A new version of the same point is a distinct id", func() {
			So(d.SeenAndRecord(ctx, "p1:1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "p1:2"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a recorded id", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		So(d.SeenAndRecord(ctx, "p1:1"), ShouldBeFalse)

		Convey("Unrecord allows the id to be retried", func() {
			d.Unrecord(ctx, "p1:1")
			So(d.Size(), ShouldEqual, 0)
			So(d.SeenAndRecord(ctx, "p1:1"), ShouldBeFalse)
		})

		Convey("Unrecord of an unknown id is a no-op", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 1)
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a deduper bounded at three entries", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		for i := 1; i <= 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("p%d", i)), ShouldBeFalse)
		}
		So(d.Size(), ShouldEqual, 3)

		Convey("Adding a fourth evicts the oldest", func() {
			So(d.SeenAndRecord(ctx, "p4"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
			// p1 was evicted and can be recorded again.
			So(d.SeenAndRecord(ctx, "p1"), ShouldBeFalse)
		})

		Convey("Recent entries remain deduplicated after eviction", func() {
			So(d.SeenAndRecord(ctx, "p4"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "p3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "p4"), ShouldBeTrue)
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))

		var wg sync.WaitGroup
		var mu sync.Mutex
		newCount := 0

		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("shared-%d", i)) {
						mu.Lock()
						newCount++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Each shared id is recorded exactly once", func() {
			So(newCount, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}

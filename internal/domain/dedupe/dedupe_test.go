package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/handicap/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a deduper", t, func() {
		d := dedupe.New()

		Convey("When a job id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "AQU-R1")
			second := d.SeenAndRecord(ctx, "AQU-R1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded id is forgotten", func() {
			d.SeenAndRecord(ctx, "AQU-R2")
			d.Forget(ctx, "AQU-R2")
			d.Forget(ctx, "never-seen")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "AQU-R2"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper with capacity two", t, func() {
		d := dedupe.New(dedupe.WithCapacity(2))
		d.SeenAndRecord(ctx, "a")
		d.SeenAndRecord(ctx, "b")
		d.SeenAndRecord(ctx, "c")

		Convey("Then the oldest id is evicted", func() {
			So(d.Size(), ShouldEqual, 2)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper under concurrent use", t, func() {
		d := dedupe.New(dedupe.WithCapacity(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, fmt.Sprintf("job-%d", i%10)) {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then each id is new exactly once", func() {
			So(fresh, ShouldEqual, 10)
			So(d.Size(), ShouldEqual, 10)
		})
	})
}
